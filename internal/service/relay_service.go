package service

import (
	"context"
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

type RelayKind string

const (
	RelayText     RelayKind = "text"
	RelayImage    RelayKind = "image"
	RelayLearning RelayKind = "learning"
)

const (
	imageAnalysisMaxTokens   = 1500
	learningJourneyMaxTokens = 2000
)

// RelayRequest 兼容旧版 message 字段
type RelayRequest struct {
	Prompt      string `json:"prompt"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	Model       string `json:"model"`
	MaxTokens   int    `json:"maxTokens"`
	ImagePrompt string `json:"imagePrompt"`
}

func (r RelayRequest) ActualPrompt() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Message
}

// RelayResult ImageAnalysis / LearningJourney 只在对应类型下有值
type RelayResult struct {
	Kind            RelayKind
	Text            string
	Usage           json.RawMessage
	ImageAnalysis   any
	LearningJourney any
	Extraction      util.Extraction
}

type RelayService struct {
	ai      *AIService
	content *content.Table
}

func NewRelayService(ai *AIService, table *content.Table) *RelayService {
	return &RelayService{ai: ai, content: table}
}

// ResolveRelayKind 空类型按普通文本处理
func ResolveRelayKind(t string) (RelayKind, error) {
	switch t {
	case "", "text", "learning_recommendation", "design_feedback", "skill_analysis":
		return RelayText, nil
	case "image":
		return RelayImage, nil
	case "learning":
		return RelayLearning, nil
	}
	return "", util.ErrInvalidRequestType
}

// FailureMessage 上游返回非 2xx 时给前端的提示
func FailureMessage(kind RelayKind) string {
	switch kind {
	case RelayImage:
		return "Failed to generate image analysis"
	case RelayLearning:
		return "Failed to generate learning journey"
	}
	return "Failed to generate text"
}

func textPrompt(requestType, prompt string) string {
	switch requestType {
	case "learning_recommendation":
		return fmt.Sprintf("As a personalized learning expert for Domestika, analyze this learning request and provide specific course recommendations, practice exercises, and a learning path: \"%s\"", prompt)
	case "design_feedback":
		return fmt.Sprintf("As an expert creative mentor, provide constructive feedback and improvement suggestions for this design work: \"%s\"", prompt)
	case "skill_analysis":
		return fmt.Sprintf("As a skills assessment expert, analyze the following and provide detailed insights about strengths, areas for improvement, and next steps: \"%s\"", prompt)
	}
	return prompt
}

func imageAnalysisPrompt(prompt string) string {
	return fmt.Sprintf(`As an expert creative assistant, analyze this request: "%s"

Provide:
1. A detailed creative description of what should be created
2. Style recommendations
3. Technical suggestions for implementation
4. Color palette suggestions
5. Composition advice

Format your response as a JSON object with these fields: description, style, technical, colors, composition`, prompt)
}

func learningJourneyPrompt(prompt string) string {
	return fmt.Sprintf(`As a personalized learning expert for Domestika, analyze this learning request: "%s"

Create a comprehensive learning journey including:
1. Recommended courses (create realistic course names)
2. Practice exercises and milestones
3. Skill progression path
4. Estimated timeline
5. Community engagement suggestions

Format as JSON with fields: courses, exercises, skillPath, timeline, community`, prompt)
}

// Relay 校验请求、按类型套用提示词模板并调用大模型
func (s *RelayService) Relay(ctx context.Context, req RelayRequest) (*RelayResult, error) {
	if !s.ai.Configured() {
		return nil, util.ErrAINotConfigured
	}

	prompt := req.ActualPrompt()
	if prompt == "" && req.ImagePrompt == "" {
		return nil, util.ErrPromptRequired
	}

	kind, err := ResolveRelayKind(req.Type)
	if err != nil {
		return nil, err
	}

	settings := s.ai.Settings()
	body := ChatCompletionRequest{
		Model:       firstNonEmpty(req.Model, settings.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: settings.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = settings.MaxTokens
	}

	var userContent string
	switch kind {
	case RelayText:
		userContent = textPrompt(req.Type, firstNonEmpty(prompt, req.ImagePrompt))
	case RelayImage:
		userContent = imageAnalysisPrompt(firstNonEmpty(req.ImagePrompt, prompt))
		body.Model = settings.ImageModel
		body.MaxTokens = imageAnalysisMaxTokens
		body.Temperature = settings.ImageTemperature
	case RelayLearning:
		userContent = learningJourneyPrompt(firstNonEmpty(prompt, req.ImagePrompt))
		body.MaxTokens = learningJourneyMaxTokens
	}
	body.Messages = []AIChatMessage{{Role: "user", Content: userContent}}

	completion, err := s.ai.Complete(ctx, body)
	if err != nil {
		return nil, err
	}

	result := &RelayResult{Kind: kind, Text: completion.Content, Usage: completion.Usage}
	switch kind {
	case RelayImage:
		var parsed map[string]any
		result.Extraction = util.ExtractJSONObject(completion.Content, &parsed)
		if result.Extraction.Parsed {
			result.ImageAnalysis = parsed
		} else {
			logger.Log.Warn("Image analysis fell back to defaults", zap.String("reason", result.Extraction.Reason))
			result.ImageAnalysis = s.content.ImageAnalysisFor(completion.Content)
		}
	case RelayLearning:
		var parsed map[string]any
		result.Extraction = util.ExtractJSONObject(completion.Content, &parsed)
		if result.Extraction.Parsed {
			result.LearningJourney = parsed
		} else {
			logger.Log.Warn("Learning journey fell back to defaults", zap.String("reason", result.Extraction.Reason))
			result.LearningJourney = s.content.LearningJourney
		}
	}
	return result, nil
}
