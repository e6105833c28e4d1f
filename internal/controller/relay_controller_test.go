package controller

import (
	"creative_learning_backend/internal/config"
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/service"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRelayRouter(cfg config.AIConfig) *gin.Engine {
	table := content.Default()
	ctrl := NewRelayController(service.NewRelayService(service.NewAIService(cfg), table), table)
	r := gin.New()
	r.POST("/api/mistral", ctrl.Relay)
	return r
}

func TestRelayRequiresPrompt(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("unused"))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Prompt or imagePrompt is required" {
		t.Fatalf("unexpected error: %v", got)
	}
	if up.calls.Load() != 0 {
		t.Fatalf("upstream must not be called without a prompt")
	}
}

func TestRelayDesignFeedback(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("Mix blue and yellow for green."))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"How do I mix colors?","type":"design_feedback"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["text"] != "Mix blue and yellow for green." || body["response"] != body["text"] {
		t.Fatalf("unexpected text: %v", body)
	}
	if body["success"] != true || body["confidence"] != float64(95) {
		t.Fatalf("unexpected flags: %v", body)
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Fatalf("timestamp missing: %v", body)
	}
	if body["usage"] == nil {
		t.Fatalf("usage should be passed through")
	}
}

func TestRelayMessageAlias(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("hi"))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRelayInvalidType(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("unused"))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"x","type":"poem"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Invalid request type" {
		t.Fatalf("unexpected error: %v", got)
	}
}

func TestRelayPropagatesUpstreamStatus(t *testing.T) {
	cases := []struct {
		reqType string
		message string
	}{
		{"text", "Failed to generate text"},
		{"image", "Failed to generate image analysis"},
		{"learning", "Failed to generate learning journey"},
	}
	for _, tc := range cases {
		t.Run(tc.reqType, func(t *testing.T) {
			up := newUpstream(t, http.StatusTooManyRequests, `{"message":"rate limited"}`)
			r := newRelayRouter(aiConfig(up.server.URL))

			rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"x","type":"`+tc.reqType+`"}`)
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != tc.message {
				t.Fatalf("expected %q, got %v", tc.message, got)
			}
		})
	}
}

func TestRelayMissingMessage(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"choices":[]}`)
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Internal server error" || body["success"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["details"] == nil {
		t.Fatalf("details missing: %v", body)
	}
}

func TestRelayNotConfigured(t *testing.T) {
	cfg := aiConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	r := newRelayRouter(cfg)

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "API key not configured" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["message"] != content.Default().Message(content.ScenarioAPIKeyMissing) {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestRelayImageParsesEmbeddedJSON(t *testing.T) {
	answer := `Here you go: {"description":"A fox","style":"flat","technical":"vector","colors":"orange","composition":"centered"} enjoy`
	up := newUpstream(t, http.StatusOK, completionJSON(answer))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"imagePrompt":"a fox","type":"image"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["parsed"] != true || body["fullResponse"] != answer {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["fallbackReason"]; ok {
		t.Fatalf("fallbackReason must be absent when parsed")
	}
	analysis, _ := body["imageAnalysis"].(map[string]any)
	if analysis["description"] != "A fox" {
		t.Fatalf("unexpected analysis: %v", analysis)
	}
}

func TestRelayLearningFallsBack(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("Practice daily."))
	r := newRelayRouter(aiConfig(up.server.URL))

	rec := performJSON(r, http.MethodPost, "/api/mistral", `{"prompt":"watercolor","type":"learning"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["parsed"] != false || body["fallbackReason"] == nil {
		t.Fatalf("expected a tagged fallback: %v", body)
	}
	if body["learningJourney"] == nil {
		t.Fatalf("fallback journey missing")
	}
}
