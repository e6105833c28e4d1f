package controller

import (
	"bytes"
	"creative_learning_backend/internal/config"
	"creative_learning_backend/internal/service"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

type imageUpstream struct {
	mu      sync.Mutex
	payload map[string]any
	server  *httptest.Server
}

func (u *imageUpstream) received() map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.payload
}

func newImageUpstream(t *testing.T, status int, body string) *imageUpstream {
	t.Helper()
	u := &imageUpstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		u.mu.Lock()
		u.payload = payload
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func newImageRouter(cfg config.ImageConfig) *gin.Engine {
	ctrl := NewImageController(service.NewImageService(cfg))
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.POST("/api/analyze-image", ctrl.Analyze)
	return r
}

func imageConfig(endpoint string) config.ImageConfig {
	return config.ImageConfig{
		Enabled:        true,
		Endpoint:       endpoint,
		Token:          "hf-test",
		DefaultPrompt:  "Turn the cat into a tiger.",
		MaxUploadMB:    1,
		TimeoutSeconds: 5,
	}
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "cat.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(file)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAnalyzeImageRejectsGet(t *testing.T) {
	r := newImageRouter(imageConfig("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze-image", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestAnalyzeImageDisabled(t *testing.T) {
	cfg := imageConfig("http://127.0.0.1:1")
	cfg.Enabled = false
	r := newImageRouter(cfg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, nil, []byte("png")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAnalyzeImageMissingFile(t *testing.T) {
	up := newImageUpstream(t, http.StatusOK, `{}`)
	r := newImageRouter(imageConfig(up.server.URL))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, map[string]string{"prompt": "x"}, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "No image found in request." {
		t.Fatalf("unexpected error: %v", got)
	}
	if up.received() != nil {
		t.Fatalf("upstream must not be called")
	}
}

func TestAnalyzeImageUnparseableBody(t *testing.T) {
	r := newImageRouter(imageConfig("http://127.0.0.1:1"))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", strings.NewReader("raw bytes"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Error parsing file" {
		t.Fatalf("unexpected error: %v", got)
	}
}

func TestAnalyzeImageMultipart(t *testing.T) {
	up := newImageUpstream(t, http.StatusOK, `{"images":[{"url":"https://cdn.example/tiger.png"}]}`)
	r := newImageRouter(imageConfig(up.server.URL))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, nil, []byte("fake-png")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "tiger.png") {
		t.Fatalf("upstream body should be returned as is: %s", rec.Body.String())
	}

	payload := up.received()
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake-png"))
	if payload["inputs"] != want {
		t.Fatalf("unexpected inputs: %v", payload["inputs"])
	}
	params, _ := payload["parameters"].(map[string]any)
	if params["prompt"] != "Turn the cat into a tiger." {
		t.Fatalf("default prompt not applied: %v", params)
	}
}

func TestAnalyzeImageJSONBody(t *testing.T) {
	up := newImageUpstream(t, http.StatusOK, `{"ok":true}`)
	r := newImageRouter(imageConfig(up.server.URL))

	encoded := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	rec := performJSON(r, http.MethodPost, "/api/analyze-image", `{"image":"data:image/png;base64,`+encoded+`","prompt":"make it blue"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	params, _ := up.received()["parameters"].(map[string]any)
	if params["prompt"] != "make it blue" {
		t.Fatalf("prompt not forwarded: %v", params)
	}
}

func TestAnalyzeImageUpstreamStatus(t *testing.T) {
	up := newImageUpstream(t, http.StatusBadGateway, `{"error":"model loading","internal":"node-7 token hf-secret"}`)
	r := newImageRouter(imageConfig(up.server.URL))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, nil, []byte("fake-png")))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Image analysis failed" {
		t.Fatalf("unexpected error message: %v", got)
	}
	if strings.Contains(rec.Body.String(), "node-7") {
		t.Fatalf("upstream body leaked to the client: %s", rec.Body.String())
	}
}

func TestAnalyzeImageTransportFailure(t *testing.T) {
	r := newImageRouter(imageConfig("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, nil, []byte("fake-png")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Image analysis failed" {
		t.Fatalf("unexpected error message: %v", got)
	}
}
