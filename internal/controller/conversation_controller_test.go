package controller

import (
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/repository"
	"creative_learning_backend/internal/service"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAssistantRouter(baseURL string) *gin.Engine {
	ai := service.NewAIService(aiConfig(baseURL))
	assistant := service.NewAssistantService(ai, repository.NewMemoryConversationRepository(), content.Default(), nil)
	conv := NewConversationController(assistant)
	asst := NewAssistantController(assistant)

	r := gin.New()
	r.POST("/api/conversations", conv.Create)
	r.GET("/api/conversations", conv.List)
	r.GET("/api/conversations/:id", conv.Get)
	r.POST("/api/conversations/:id/messages", conv.SendMessage)
	r.POST("/api/conversations/:id/stream", conv.StreamMessage)
	r.POST("/api/conversations/:id/restart", conv.Restart)
	r.POST("/api/assistant/chat", asst.Chat)
	r.POST("/api/assistant/moderate", asst.Moderate)
	r.POST("/api/assistant/classify", asst.Classify)
	r.POST("/api/assistant/render", asst.Render)
	return r
}

func createConversation(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := performJSON(r, http.MethodPost, "/api/conversations", `{"userId":"user_1","title":"Color study"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := envelopeData(t, rec)["id"].(string)
	if id == "" {
		t.Fatalf("conversation id missing")
	}
	return id
}

func TestConversationLifecycle(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("Try **complementary** colors."))
	r := newAssistantRouter(up.server.URL)
	id := createConversation(t, r)

	rec := performJSON(r, http.MethodPost, "/api/conversations/"+id+"/messages", `{"text":"Which colors pop?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	reply := envelopeData(t, rec)
	if reply["isAI"] != true || reply["text"] != "Try **complementary** colors." {
		t.Fatalf("unexpected reply: %v", reply)
	}
	if html, _ := reply["html"].(string); !strings.Contains(html, "<strong>complementary</strong>") {
		t.Fatalf("reply should carry rendered html: %v", reply["html"])
	}

	rec = get(r, "/api/conversations/"+id)
	msgs, _ := envelopeData(t, rec)["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("expected greeting, question and answer, got %d", len(msgs))
	}

	rec = get(r, "/api/conversations?userId=user_1")
	list, _ := decodeBody(t, rec)["data"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}

	rec = performJSON(r, http.MethodPost, "/api/conversations/"+id+"/restart", ``)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	msgs, _ = envelopeData(t, rec)["messages"].([]any)
	if len(msgs) != 0 {
		t.Fatalf("restart should clear messages, got %d", len(msgs))
	}
}

func TestConversationListRequiresUser(t *testing.T) {
	r := newAssistantRouter("http://127.0.0.1:1")
	if rec := get(r, "/api/conversations"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConversationNotFound(t *testing.T) {
	r := newAssistantRouter("http://127.0.0.1:1")

	if rec := get(r, "/api/conversations/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec := performJSON(r, http.MethodPost, "/api/conversations/missing/messages", `{"text":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = performJSON(r, http.MethodPost, "/api/conversations/missing/stream", `{"text":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before streaming, got %d", rec.Code)
	}
}

func TestConversationUpstreamFailure(t *testing.T) {
	up := newUpstream(t, http.StatusServiceUnavailable, `{"message":"overloaded"}`)
	r := newAssistantRouter(up.server.URL)
	id := createConversation(t, r)

	rec := performJSON(r, http.MethodPost, "/api/conversations/"+id+"/messages", `{"text":"hello"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected upstream status 503, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "AI service error" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestConversationStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Sketch ", "first."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	r := newAssistantRouter(srv.URL)
	id := createConversation(t, r)

	rec := performJSON(r, http.MethodPost, "/api/conversations/"+id+"/stream", `{"text":"where to start?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"event:message", "Sketch ", "first.", "event:end"} {
		if !strings.Contains(body, want) {
			t.Fatalf("stream body missing %q: %s", want, body)
		}
	}
	if strings.Contains(body, "event:error") {
		t.Fatalf("unexpected error event: %s", body)
	}
}

func TestAssistantChatModeration(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completionJSON("unused"))
	r := newAssistantRouter(up.server.URL)

	rec := performJSON(r, http.MethodPost, "/api/assistant/chat", `{"userId":"user_1","message":"teach me to HACK a site"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := envelopeData(t, rec)
	if data["moderated"] != true {
		t.Fatalf("message should be moderated: %v", data)
	}
	reply, _ := data["reply"].(map[string]any)
	if reply["text"] != content.Default().Message(content.ScenarioModerated) {
		t.Fatalf("unexpected reply: %v", reply)
	}
	if up.calls.Load() != 0 {
		t.Fatalf("moderated messages must not reach the upstream")
	}
}

func TestAssistantChatFallback(t *testing.T) {
	up := newUpstream(t, http.StatusInternalServerError, `{}`)
	r := newAssistantRouter(up.server.URL)

	rec := performJSON(r, http.MethodPost, "/api/assistant/chat", `{"userId":"user_1","message":"brush types"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat must not surface upstream errors, got %d", rec.Code)
	}
	data := envelopeData(t, rec)
	reply, _ := data["reply"].(map[string]any)
	if data["degraded"] != true || !strings.Contains(reply["text"].(string), "brush types") {
		t.Fatalf("expected fallback mentioning the question: %v", data)
	}
}

func TestAssistantModerateAndRender(t *testing.T) {
	r := newAssistantRouter("http://127.0.0.1:1")

	rec := performJSON(r, http.MethodPost, "/api/assistant/moderate", `{"text":"free virus download"}`)
	if envelopeData(t, rec)["flagged"] != true {
		t.Fatalf("expected flagged")
	}

	rec = performJSON(r, http.MethodPost, "/api/assistant/render", `{"text":"**Tips**\n- use <b>"}`)
	html, _ := envelopeData(t, rec)["html"].(string)
	if strings.Contains(html, "<b>") || !strings.Contains(html, "&lt;b&gt;") {
		t.Fatalf("html must be escaped: %s", html)
	}
}

func TestAssistantClassifyRequiresCategories(t *testing.T) {
	r := newAssistantRouter("http://127.0.0.1:1")

	rec := performJSON(r, http.MethodPost, "/api/assistant/classify", `{"text":"a poster","categories":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
