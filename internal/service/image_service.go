package service

import (
	"bytes"
	"context"
	"creative_learning_backend/internal/config"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/monitoring"
	"creative_learning_backend/pkg/tracing"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const upstreamImage = "image"

var errInvalidImageResponse = errors.New("image endpoint returned invalid JSON")

// ImageService 把上传的图片转成 data URL 转发给图生图推理接口
type ImageService struct {
	mu     sync.RWMutex
	config config.ImageConfig
	client *http.Client
}

func NewImageService(cfg config.ImageConfig) *ImageService {
	return &ImageService{config: cfg, client: &http.Client{Timeout: cfg.Timeout()}}
}

func (s *ImageService) UpdateConfig(cfg config.ImageConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout()}
}

func (s *ImageService) Settings() config.ImageConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

type imageInferenceRequest struct {
	Inputs     string                   `json:"inputs"`
	Parameters imageInferenceParameters `json:"parameters"`
}

type imageInferenceParameters struct {
	Prompt string `json:"prompt"`
}

// Analyze 返回上游的原始 JSON
func (s *ImageService) Analyze(ctx context.Context, image []byte, prompt string) (json.RawMessage, error) {
	s.mu.RLock()
	cfg, client := s.config, s.client
	s.mu.RUnlock()

	if !cfg.Enabled {
		return nil, util.ErrImageDisabled
	}
	if len(image) == 0 {
		return nil, util.ErrImageRequired
	}
	if prompt == "" {
		prompt = cfg.DefaultPrompt
	}

	payload, err := json.Marshal(imageInferenceRequest{
		Inputs:     "data:" + util.MimeImagePNG + ";base64," + base64.StdEncoding.EncodeToString(image),
		Parameters: imageInferenceParameters{Prompt: prompt},
	})
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer.Start(ctx, "image.inference", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(image)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", util.MimeJSON)
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	resp, err := client.Do(req)
	if err != nil {
		monitoring.ObserveUpstream(upstreamImage, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	defer resp.Body.Close()
	monitoring.ObserveUpstream(upstreamImage, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, "upstream error")
		return nil, &util.UpstreamError{Target: "image", StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, errInvalidImageResponse
	}
	return json.RawMessage(body), nil
}
