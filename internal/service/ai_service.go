package service

import (
	"bufio"
	"bytes"
	"context"
	"creative_learning_backend/internal/config"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/monitoring"
	"creative_learning_backend/pkg/tracing"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const upstreamMistral = "mistral"

type AIService struct {
	mu           sync.RWMutex
	config       config.AIConfig
	client       *http.Client
	streamClient *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
		// 流式响应的时长由请求 ctx 控制
		streamClient: &http.Client{},
	}
}

// UpdateConfig 配置热更新时替换模型参数和密钥
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout()}
}

func (s *AIService) Settings() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *AIService) Configured() bool {
	return s.Settings().APIKey != ""
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	SafePrompt  bool            `json:"safe_prompt,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message *AIChatMessage `json:"message"`
		Delta   AIChatMessage  `json:"delta"` // 流式响应
	} `json:"choices"`
	Usage json.RawMessage `json:"usage,omitempty"`
}

// Completion 一次非流式调用的结果，Usage 原样透传上游的用量统计
type Completion struct {
	Content string
	Usage   json.RawMessage
}

func (s *AIService) newRequest(ctx context.Context, cfg config.AIConfig, body ChatCompletionRequest) (*http.Request, error) {
	if cfg.APIKey == "" {
		return nil, util.ErrAINotConfigured
	}
	if body.Model == "" {
		body.Model = cfg.Model
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = cfg.MaxTokens
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", util.MimeJSON)
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return req, nil
}

// Complete 调用 chat/completions，返回第一条 choice 的内容
func (s *AIService) Complete(ctx context.Context, body ChatCompletionRequest) (*Completion, error) {
	s.mu.RLock()
	cfg, client := s.config, s.client
	s.mu.RUnlock()

	body.Stream = false
	req, err := s.newRequest(ctx, cfg, body)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer.Start(ctx, "ai.chat_completion", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", firstNonEmpty(body.Model, cfg.Model)))

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		monitoring.ObserveUpstream(upstreamMistral, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	defer resp.Body.Close()

	monitoring.ObserveUpstream(upstreamMistral, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, "upstream error")
		return nil, &util.UpstreamError{Target: "AI", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidUpstreamResponse, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message == nil {
		return nil, util.ErrInvalidUpstreamResponse
	}

	return &Completion{Content: result.Choices[0].Message.Content, Usage: result.Usage}, nil
}

// Stream 流式调用，按 data: 行读取增量内容直到 [DONE]
func (s *AIService) Stream(ctx context.Context, body ChatCompletionRequest) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	body.Stream = true
	req, err := s.newRequest(ctx, cfg, body)
	if err != nil {
		close(out)
		errChan <- err
		close(errChan)
		return out, errChan
	}

	go func() {
		defer close(out)
		defer close(errChan)

		ctx, span := tracing.Tracer.Start(ctx, "ai.chat_completion.stream", trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		resp, err := s.streamClient.Do(req.WithContext(ctx))
		if err != nil {
			monitoring.ObserveUpstream(upstreamMistral, 0)
			span.RecordError(err)
			errChan <- err
			return
		}
		defer resp.Body.Close()
		monitoring.ObserveUpstream(upstreamMistral, resp.StatusCode)

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			errChan <- &util.UpstreamError{Target: "AI", StatusCode: resp.StatusCode, Body: string(respBody)}
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				errChan <- err
				return
			}

			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "data: ") {
				data := strings.TrimPrefix(trimmed, "data: ")
				if data == "[DONE]" {
					return
				}

				var streamResp ChatCompletionResponse
				if jsonErr := json.Unmarshal([]byte(data), &streamResp); jsonErr == nil && len(streamResp.Choices) > 0 {
					if content := streamResp.Choices[0].Delta.Content; content != "" {
						select {
						case out <- content:
						case <-ctx.Done():
							errChan <- ctx.Err()
							return
						}
					}
				}
			}

			if err == io.EOF {
				return
			}
		}
	}()

	return out, errChan
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
