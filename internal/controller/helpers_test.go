package controller

import (
	"creative_learning_backend/internal/config"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type upstream struct {
	server *httptest.Server
	calls  atomic.Int32
}

// newUpstream 模拟 chat/completions 接口，固定返回 status 和 body
func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func aiConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		Model:            "mistral-small-latest",
		ImageModel:       "mistral-large-latest",
		Temperature:      0.7,
		ImageTemperature: 0.8,
		MaxTokens:        1000,
		TimeoutSeconds:   5,
	}
}

func completionJSON(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
		"usage":   map[string]int{"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21},
	})
	return string(b)
}

func performJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return out
}

// envelopeData 取统一响应结构中的 data 字段
func envelopeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %s", rec.Body.String())
	}
	return data
}
