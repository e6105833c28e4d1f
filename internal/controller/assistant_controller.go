package controller

import (
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AssistantController struct {
	assistantService *service.AssistantService
}

func NewAssistantController(assistantService *service.AssistantService) *AssistantController {
	return &AssistantController{assistantService: assistantService}
}

type chatRequest struct {
	UserID         string `json:"userId" binding:"required"`
	ConversationID string `json:"conversationId"`
	Message        string `json:"message" binding:"required"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type classifyRequest struct {
	Text       string   `json:"text" binding:"required"`
	Categories []string `json:"categories" binding:"required,min=1"`
}

type completionRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	MaxTokens int    `json:"maxTokens"`
}

type designFeedbackRequest struct {
	Title string `json:"title" binding:"required"`
}

type variationRequest struct {
	DesignID      string `json:"designId"`
	VariationType string `json:"variationType" binding:"required"`
	Description   string `json:"description"`
}

type courseRecommendationRequest struct {
	Skills      []string `json:"skills"`
	Preferences []string `json:"preferences"`
}

// @Summary 聊天
// @Description 先做内容审核，失败时返回兜底回复，不会返回上游错误
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/chat [post]
func (c *AssistantController) Chat(ctx *gin.Context) {
	var req chatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.assistantService.Converse(ctx.Request.Context(), req.UserID, req.ConversationID, req.Message)
	if errors.Is(err, util.ErrConversationNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 内容审核
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/moderate [post]
func (c *AssistantController) Moderate(ctx *gin.Context) {
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.ModerateContent(req.Text))
}

// @Summary 内容分类
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/classify [post]
func (c *AssistantController) Classify(ctx *gin.Context) {
	var req classifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.ClassifyContent(ctx.Request.Context(), req.Text, req.Categories))
}

// @Summary 创意助手文本补全
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/completion [post]
func (c *AssistantController) Completion(ctx *gin.Context) {
	var req completionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.GetChatCompletion(ctx.Request.Context(), req.Prompt, req.MaxTokens))
}

// @Summary 设计作品点评
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/design-feedback [post]
func (c *AssistantController) DesignFeedback(ctx *gin.Context) {
	var req designFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.AnalyzeDesign(ctx.Request.Context(), req.Title))
}

// @Summary 生成设计变体
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/variations [post]
func (c *AssistantController) Variation(ctx *gin.Context) {
	var req variationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.GenerateVariation(ctx.Request.Context(), req.DesignID, req.VariationType, req.Description))
}

// @Summary 课程推荐
// @Description 最多返回5门，失败时返回空列表
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/course-recommendations [post]
func (c *AssistantController) CourseRecommendations(ctx *gin.Context) {
	var req courseRecommendationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.assistantService.RecommendCourses(ctx.Request.Context(), req.Skills, req.Preferences))
}

// @Summary 渲染消息为HTML
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/assistant/render [post]
func (c *AssistantController) Render(ctx *gin.Context) {
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"html": util.RenderMessage(req.Text)})
}
