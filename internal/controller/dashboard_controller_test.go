package controller

import (
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/repository"
	"creative_learning_backend/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newDashboardRouter() (*gin.Engine, *repository.LearnerRepository) {
	learners := repository.NewLearnerRepository()
	cache := repository.NewMemoryMetricsCache(5*time.Minute, 16, time.Now)
	ctrl := NewDashboardController(service.NewDashboardService(learners, cache, content.Default()))

	r := gin.New()
	r.GET("/api/dashboard/metrics/:userId", ctrl.GetMetrics)
	r.GET("/api/dashboard/realtime", ctrl.GetRealTime)
	r.GET("/api/dashboard/courses", ctrl.GetCourses)
	r.POST("/api/dashboard/activity", ctrl.RecordActivity)
	return r, learners
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboardMetricsAreCached(t *testing.T) {
	r, _ := newDashboardRouter()

	first := get(r, "/api/dashboard/metrics/user_1")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	data := envelopeData(t, first)
	skills, _ := data["skillDistribution"].([]any)
	if len(skills) != 5 {
		t.Fatalf("expected 5 skills, got %d", len(skills))
	}
	weeks, _ := data["weeklyProgress"].([]any)
	days, _ := data["activityData"].([]any)
	if len(weeks) != 4 || len(days) != 7 {
		t.Fatalf("unexpected series lengths: weeks=%d days=%d", len(weeks), len(days))
	}

	second := get(r, "/api/dashboard/metrics/user_1")
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached metrics should be identical within the TTL")
	}
}

func TestDashboardMetricsUnknownUser(t *testing.T) {
	r, _ := newDashboardRouter()

	rec := get(r, "/api/dashboard/metrics/nobody")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := envelopeData(t, rec)
	if data["totalHours"] != content.Default().FallbackMetrics().TotalHours {
		t.Fatalf("expected fallback metrics, got %v", data["totalHours"])
	}
}

func TestDashboardRealTimeAndCourses(t *testing.T) {
	r, _ := newDashboardRouter()

	rec := get(r, "/api/dashboard/realtime")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if envelopeData(t, rec)["trendingTopics"] == nil {
		t.Fatalf("trending topics missing: %s", rec.Body.String())
	}

	rec = get(r, "/api/dashboard/courses")
	courses, _ := decodeBody(t, rec)["data"].([]any)
	if len(courses) != 4 {
		t.Fatalf("expected 4 courses, got %d", len(courses))
	}
}

func TestDashboardRecordActivity(t *testing.T) {
	r, learners := newDashboardRouter()

	rec := performJSON(r, http.MethodPost, "/api/dashboard/activity", `{"userId":"user_1","type":"course_completed","description":"Finished Typography"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if envelopeData(t, rec)["recorded"] != true {
		t.Fatalf("activity should be recorded")
	}
	l, err := learners.FindByID("user_1")
	if err != nil {
		t.Fatalf("find learner: %v", err)
	}
	if l.Stats.CoursesCompleted != 9 {
		t.Fatalf("expected 9 completed courses, got %d", l.Stats.CoursesCompleted)
	}

	rec = performJSON(r, http.MethodPost, "/api/dashboard/activity", `{"userId":"ghost","type":"ai_chat"}`)
	if envelopeData(t, rec)["recorded"] != false {
		t.Fatalf("unknown user must be ignored")
	}

	rec = performJSON(r, http.MethodPost, "/api/dashboard/activity", `{"type":"ai_chat"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
}
