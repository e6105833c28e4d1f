package service

import (
	"context"
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/model"
	"creative_learning_backend/internal/repository"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	aiMessageConfidence       = 85
	greetingConfidence        = 95
	moderationConfidence      = 100
	fallbackMessageConfidence = 50
	designFeedbackMaxTokens   = 1500
	variationMaxTokens        = 1000
	courseSuggestionMaxTokens = 2000
	maxCourseSuggestions      = 5
	defaultConversationTitle  = "New Conversation"
)

const creativeAssistantSystemPrompt = "You are Domestika Creative Assistant. Always format responses with LaTeX for math, markdown for structure, and provide actionable creative guidance."

// ActivityRecorder 成功的对话轮次会记一条 ai_chat 活动
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID, activityType, description string, metadata map[string]string) *model.Activity
}

type AssistantService struct {
	ai       *AIService
	store    repository.ConversationStore
	content  *content.Table
	activity ActivityRecorder
}

func NewAssistantService(ai *AIService, store repository.ConversationStore, table *content.Table, activity ActivityRecorder) *AssistantService {
	return &AssistantService{ai: ai, store: store, content: table, activity: activity}
}

func (s *AssistantService) newMessage(text string, isAI bool, confidence *int) model.ChatMessage {
	msg := model.ChatMessage{
		ID:         model.GenerateUUID(),
		Text:       text,
		IsAI:       isAI,
		Timestamp:  time.Now(),
		Confidence: confidence,
	}
	if isAI {
		msg.HTML = util.RenderMessage(text)
	}
	return msg
}

// CreateConversation 新会话以问候语开头
func (s *AssistantService) CreateConversation(ctx context.Context, userID, title, initialMessage string) (*model.Conversation, error) {
	if title == "" {
		title = defaultConversationTitle
	}
	now := time.Now()
	conv := &model.Conversation{
		ID:        model.GenerateUUID(),
		UserID:    userID,
		Title:     title,
		Messages:  []model.ChatMessage{s.newMessage(s.content.Message(content.ScenarioGreeting), true, model.IntPtr(greetingConfidence))},
		CreatedAt: now,
		UpdatedAt: now,
		Status:    model.ConversationActive,
		Tags:      []string{},
	}
	if initialMessage != "" {
		conv.Messages = append(conv.Messages, s.newMessage(initialMessage, false, nil))
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *AssistantService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.store.Get(ctx, id)
}

func (s *AssistantService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *AssistantService) RestartConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = []model.ChatMessage{}
	conv.UpdatedAt = time.Now()
	if err := s.store.Replace(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// history 转成 chat/completions 消息，第一条用户消息之前的助手消息（问候语）不发送
func history(msgs []model.ChatMessage) []AIChatMessage {
	out := make([]AIChatMessage, 0, len(msgs))
	seenUser := false
	for _, m := range msgs {
		if !m.IsAI {
			seenUser = true
		}
		if !seenUser {
			continue
		}
		out = append(out, AIChatMessage{Role: m.Role(), Content: m.Text})
	}
	return out
}

func (s *AssistantService) conversationRequest(conv *model.Conversation) ChatCompletionRequest {
	settings := s.ai.Settings()
	return ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    history(conv.Messages),
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		SafePrompt:  true,
	}
}

// SendMessage 追加用户消息后带完整历史调用大模型，上游失败直接返回错误
func (s *AssistantService) SendMessage(ctx context.Context, convID, text string) (*model.ChatMessage, error) {
	conv, err := s.store.AppendMessages(ctx, convID, s.newMessage(text, false, nil))
	if err != nil {
		return nil, err
	}

	completion, err := s.ai.Complete(ctx, s.conversationRequest(conv))
	if err != nil {
		return nil, err
	}

	answer := completion.Content
	if answer == "" {
		answer = s.content.Message(content.ScenarioNoResponse)
	}
	reply := s.newMessage(answer, true, model.IntPtr(aiMessageConfidence))
	if _, err := s.store.AppendMessages(ctx, convID, reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// StreamMessage 流式返回增量内容，正常结束后把完整回答写回会话
func (s *AssistantService) StreamMessage(ctx context.Context, convID, text string) (<-chan string, <-chan error, error) {
	conv, err := s.store.AppendMessages(ctx, convID, s.newMessage(text, false, nil))
	if err != nil {
		return nil, nil, err
	}

	deltas, upstreamErrs := s.ai.Stream(ctx, s.conversationRequest(conv))
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		var sb strings.Builder
		for d := range deltas {
			sb.WriteString(d)
			select {
			case out <- d:
			case <-ctx.Done():
			}
		}
		if err := <-upstreamErrs; err != nil {
			errs <- err
			return
		}
		if err := ctx.Err(); err != nil {
			errs <- err
			return
		}

		answer := sb.String()
		if answer == "" {
			answer = s.content.Message(content.ScenarioNoResponse)
		}
		reply := s.newMessage(answer, true, model.IntPtr(aiMessageConfidence))
		if _, err := s.store.AppendMessages(context.WithoutCancel(ctx), convID, reply); err != nil {
			errs <- err
		}
	}()

	return out, errs, nil
}

// ConverseResult 一轮对话的结果，Degraded 表示回复来自兜底文案
type ConverseResult struct {
	Conversation *model.Conversation `json:"conversation"`
	Reply        model.ChatMessage   `json:"reply"`
	Moderated    bool                `json:"moderated"`
	Degraded     bool                `json:"degraded"`
}

func conversationTitle(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	if len(r) == 0 {
		return defaultConversationTitle
	}
	return string(r)
}

// Converse 前端聊天框的一轮：先审核，再调用大模型，失败时用兜底文案，不向调用方返回上游错误
func (s *AssistantService) Converse(ctx context.Context, userID, convID, text string) (*ConverseResult, error) {
	if convID == "" {
		conv, err := s.CreateConversation(ctx, userID, conversationTitle(text), "")
		if err != nil {
			return nil, err
		}
		convID = conv.ID
	}

	result := &ConverseResult{}
	if s.ModerateContent(text).Flagged {
		logger.Log.Info("Message flagged by moderation", zap.String("conversationId", convID))
		result.Moderated = true
		result.Reply = s.newMessage(s.content.Message(content.ScenarioModerated), true, model.IntPtr(moderationConfidence))
		if _, err := s.store.AppendMessages(ctx, convID, s.newMessage(text, false, nil), result.Reply); err != nil {
			return nil, err
		}
	} else {
		reply, err := s.SendMessage(ctx, convID, text)
		switch {
		case errors.Is(err, util.ErrConversationNotFound):
			return nil, err
		case err != nil:
			logger.Log.Warn("Chat turn fell back to canned reply", zap.String("conversationId", convID), zap.Error(err))
			result.Degraded = true
			result.Reply = s.fallbackReply(text, err)
			if _, err := s.store.AppendMessages(ctx, convID, result.Reply); err != nil {
				return nil, err
			}
		default:
			result.Reply = *reply
			if s.activity != nil {
				s.activity.RecordActivity(ctx, userID, model.ActivityAIChat, "AI chat: "+conversationTitle(text), map[string]string{"conversationId": convID})
			}
		}
	}

	conv, err := s.store.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	result.Conversation = conv
	return result, nil
}

// fallbackReply 上游明确拒绝时给出引用原文的兜底，网络类故障给出连接提示
func (s *AssistantService) fallbackReply(text string, err error) model.ChatMessage {
	var ue *util.UpstreamError
	if errors.As(err, &ue) || errors.Is(err, util.ErrInvalidUpstreamResponse) || errors.Is(err, util.ErrAINotConfigured) {
		return s.newMessage(s.content.Message(content.ScenarioChatFallback, text), true, model.IntPtr(fallbackMessageConfidence))
	}
	return s.newMessage(s.content.Message(content.ScenarioConnectivity), true, model.IntPtr(0))
}

// ModerateContent 本地敏感词检查，不区分大小写
func (s *AssistantService) ModerateContent(text string) model.ModerationResult {
	lower := strings.ToLower(text)
	for _, word := range s.content.BannedWords {
		if strings.Contains(lower, word) {
			return model.ModerationResult{Flagged: true}
		}
	}
	return model.ModerationResult{}
}

func (s *AssistantService) complete(ctx context.Context, prompt string, maxTokens int, system string) (*Completion, error) {
	settings := s.ai.Settings()
	msgs := []AIChatMessage{}
	modelName := settings.Model
	if system != "" {
		msgs = append(msgs, AIChatMessage{Role: "system", Content: system})
		modelName = settings.ImageModel
	}
	msgs = append(msgs, AIChatMessage{Role: "user", Content: prompt})
	return s.ai.Complete(ctx, ChatCompletionRequest{
		Model:       modelName,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: settings.Temperature,
	})
}

func (s *AssistantService) classificationFallback() model.ClassificationResult {
	fb := s.content.Classification
	fb.Subcategories = []model.SubCategory{}
	return fb
}

// ClassifyContent 分类结果必须是给定类别之一，否则返回 unknown
func (s *AssistantService) ClassifyContent(ctx context.Context, text string, categories []string) model.ClassificationResult {
	if len(categories) == 0 || strings.TrimSpace(text) == "" {
		return s.classificationFallback()
	}

	prompt := fmt.Sprintf(`Classify the following content into exactly one of these categories: %s.
Respond only with JSON: {"category": "<one of the categories>", "confidence": <0 to 1>, "subcategories": [{"name": "<name>", "confidence": <0 to 1>}]}

Content: "%s"`, strings.Join(categories, ", "), text)

	completion, err := s.complete(ctx, prompt, 300, "")
	if err != nil {
		logger.Log.Warn("Content classification failed", zap.Error(err))
		return s.classificationFallback()
	}

	var parsed model.ClassificationResult
	if ex := util.ExtractJSONObject(completion.Content, &parsed); !ex.Parsed {
		logger.Log.Warn("Content classification unparsable", zap.String("reason", ex.Reason))
		return s.classificationFallback()
	}

	for _, c := range categories {
		if strings.EqualFold(c, strings.TrimSpace(parsed.Category)) {
			parsed.Category = c
			parsed.Confidence = clampUnit(parsed.Confidence)
			if parsed.Subcategories == nil {
				parsed.Subcategories = []model.SubCategory{}
			}
			return parsed
		}
	}
	return s.classificationFallback()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func creativeAssistantPrompt(prompt string) string {
	return fmt.Sprintf(`You are Domestika Creative Assistant, an AI mentor helping millions of creatives learn faster, practice better, and share more confidently.

For mathematical concepts, use LaTeX notation: $formula$ for inline math, $$formula$$ for block math.
For emphasis, use **bold** and *italics*.
Structure your response clearly with headers and sections.

User Query: %s

Provide a comprehensive, well-formatted response that helps the learner grow their creative skills.`, prompt)
}

// GetChatCompletion 创意助手补全，失败时返回离线指南
func (s *AssistantService) GetChatCompletion(ctx context.Context, prompt string, maxTokens int) model.CompletionResult {
	if maxTokens <= 0 {
		maxTokens = s.ai.Settings().MaxTokens
	}
	completion, err := s.complete(ctx, creativeAssistantPrompt(prompt), maxTokens, creativeAssistantSystemPrompt)
	if err != nil {
		logger.Log.Warn("Chat completion failed", zap.Error(err))
		return model.CompletionResult{Text: s.content.Message(content.ScenarioOfflineGuide), Degraded: true}
	}
	return model.CompletionResult{Text: util.EmphasizeCreativeTerms(completion.Content), Usage: completion.Usage}
}

type DesignFeedbackResult struct {
	model.DesignFeedback
	util.Extraction
}

func designFeedbackPrompt(title string) string {
	return fmt.Sprintf(`Analyze this design titled "%s". Provide detailed feedback on:
1. Color Harmony (0-100 score)
2. Composition (0-100 score)
3. Typography (0-100 score)
4. Visual Balance (0-100 score)
5. Brand Alignment (0-100 score)

Also analyze the style composition as percentages for: Modern, Minimalist, Vintage, Abstract, and other styles.

Return as JSON with this structure:
{
  "aspects": [
    {"aspect": "Color Harmony", "score": 85, "suggestion": "detailed suggestion"}
  ],
  "styleAnalysis": [
    {"name": "Modern", "value": 35, "color": "#8B5CF6"}
  ],
  "overallScore": 82
}`, title)
}

func (s *AssistantService) AnalyzeDesign(ctx context.Context, title string) DesignFeedbackResult {
	completion, err := s.complete(ctx, designFeedbackPrompt(title), designFeedbackMaxTokens, "")
	if err != nil {
		logger.Log.Warn("Design analysis failed", zap.Error(err))
		return DesignFeedbackResult{
			DesignFeedback: s.content.DesignFeedbackFor("Analysis temporarily unavailable"),
			Extraction:     util.Extraction{Reason: err.Error()},
		}
	}

	var parsed model.DesignFeedback
	ex := util.ExtractJSONObject(completion.Content, &parsed)
	if !ex.Parsed {
		return DesignFeedbackResult{DesignFeedback: s.content.DesignFeedbackFor(completion.Content), Extraction: ex}
	}
	for i := range parsed.Aspects {
		parsed.Aspects[i].Score = model.ClampPercent(parsed.Aspects[i].Score)
	}
	parsed.OverallScore = model.ClampPercent(parsed.OverallScore)
	return DesignFeedbackResult{DesignFeedback: parsed, Extraction: ex}
}

func variationPrompt(variationType, description string) string {
	return fmt.Sprintf(`Generate a creative variation for a design with the following requirements:
- Type: %s
- Description: %s
- Provide specific implementation details
- Suggest color palettes, layout changes, or style modifications

Return as JSON:
{
  "title": "Variation Name",
  "description": "Detailed description of changes",
  "confidence": 90,
  "type": "%s",
  "implementation": "Step-by-step implementation guide"
}`, variationType, description, variationType)
}

func (s *AssistantService) GenerateVariation(ctx context.Context, designID, variationType, description string) model.DesignVariation {
	fallback := model.DesignVariation{
		ID:          "var_" + model.GenerateUUID(),
		DesignID:    designID,
		Title:       variationType + " Variation",
		Description: description,
		Confidence:  75,
		Type:        variationType,
	}

	completion, err := s.complete(ctx, variationPrompt(variationType, description), variationMaxTokens, "")
	if err != nil {
		logger.Log.Warn("Variation generation failed", zap.Error(err))
		return fallback
	}

	var parsed model.DesignVariation
	if ex := util.ExtractJSONObject(completion.Content, &parsed); !ex.Parsed || parsed.Title == "" {
		return fallback
	}
	parsed.ID = fallback.ID
	parsed.DesignID = designID
	parsed.Confidence = model.ClampPercent(parsed.Confidence)
	if parsed.Type == "" {
		parsed.Type = variationType
	}
	return parsed
}

func courseSuggestionPrompt(skills, preferences []string) string {
	return fmt.Sprintf(`Based on these user skills: %s and preferences: %s, recommend 5 creative courses for Domestika.

Return as JSON array:
[
  {
    "id": "course_1",
    "title": "Course Title",
    "instructor": "Instructor Name",
    "level": "Beginner/Intermediate/Advanced",
    "duration": "X hours",
    "rating": 4.8,
    "price": "$XX",
    "skills": ["skill1", "skill2"],
    "aiMatch": 95,
    "enrollments": 1200,
    "completionRate": 87
  }
]`, strings.Join(skills, ", "), strings.Join(preferences, ", "))
}

// RecommendCourses 失败时返回空列表
func (s *AssistantService) RecommendCourses(ctx context.Context, skills, preferences []string) []model.CourseSuggestion {
	completion, err := s.complete(ctx, courseSuggestionPrompt(skills, preferences), courseSuggestionMaxTokens, "")
	if err != nil {
		logger.Log.Warn("Course recommendation failed", zap.Error(err))
		return []model.CourseSuggestion{}
	}

	var courses []model.CourseSuggestion
	if ex := util.ExtractJSONArray(completion.Content, &courses); !ex.Parsed {
		logger.Log.Warn("Course recommendation unparsable", zap.String("reason", ex.Reason))
		return []model.CourseSuggestion{}
	}
	if len(courses) > maxCourseSuggestions {
		courses = courses[:maxCourseSuggestions]
	}
	return courses
}
