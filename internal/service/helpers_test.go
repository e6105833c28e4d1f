package service

import (
	"creative_learning_backend/internal/config"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// stubUpstream 记录收到的 chat/completions 请求并按 handler 返回
type stubUpstream struct {
	mu       sync.Mutex
	requests []ChatCompletionRequest
	server   *httptest.Server
}

func (u *stubUpstream) last() ChatCompletionRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return ChatCompletionRequest{}
	}
	return u.requests[len(u.requests)-1]
}

func (u *stubUpstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func newStubUpstream(t *testing.T, status int, body string) *stubUpstream {
	t.Helper()
	u := &stubUpstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var req ChatCompletionRequest
		json.Unmarshal(raw, &req)
		u.mu.Lock()
		u.requests = append(u.requests, req)
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func testAIConfig(baseURL string) config.AIConfig {
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

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
		"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18},
	})
	return string(b)
}
