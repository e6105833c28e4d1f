package controller

import (
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConversationController struct {
	assistantService *service.AssistantService
}

func NewConversationController(assistantService *service.AssistantService) *ConversationController {
	return &ConversationController{assistantService: assistantService}
}

type createConversationRequest struct {
	UserID         string `json:"userId" binding:"required"`
	Title          string `json:"title"`
	InitialMessage string `json:"initialMessage"`
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// respondAssistantError 会话不存在返回404，上游失败带上游状态码
func respondAssistantError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrConversationNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrAINotConfigured):
		util.ServiceUnavailable(ctx, "AI service not configured")
	case util.UpstreamStatus(err) != 0:
		logger.Log.Warn("AI API error", zap.Error(err))
		util.Error(ctx, util.UpstreamStatus(err), "AI service error")
	case errors.Is(err, util.ErrInvalidUpstreamResponse):
		logger.Log.Warn("AI API returned invalid response", zap.Error(err))
		util.Error(ctx, http.StatusBadGateway, err.Error())
	default:
		logger.Log.Error("AI request failed", zap.Error(err))
		util.Error(ctx, http.StatusBadGateway, "AI service unavailable")
	}
}

// @Summary 创建会话
// @Tags 会话
// @Accept json
// @Produce json
// @Success 201 {object} util.Response
// @Router /api/conversations [post]
func (c *ConversationController) Create(ctx *gin.Context) {
	var req createConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	conv, err := c.assistantService.CreateConversation(ctx.Request.Context(), req.UserID, req.Title, req.InitialMessage)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, conv)
}

// @Summary 用户会话列表
// @Description 按最近更新时间倒序
// @Tags 会话
// @Produce json
// @Param userId query string true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/conversations [get]
func (c *ConversationController) List(ctx *gin.Context) {
	userID := ctx.Query("userId")
	if userID == "" {
		util.BadRequest(ctx, "userId is required")
		return
	}

	convs, err := c.assistantService.ListConversations(ctx.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, convs)
}

// @Summary 会话详情
// @Tags 会话
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/conversations/{id} [get]
func (c *ConversationController) Get(ctx *gin.Context) {
	conv, err := c.assistantService.GetConversation(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, util.ErrConversationNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, conv)
}

// @Summary 发送消息
// @Description 带完整历史调用大模型，返回助手消息
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/conversations/{id}/messages [post]
func (c *ConversationController) SendMessage(ctx *gin.Context) {
	var req sendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.assistantService.SendMessage(ctx.Request.Context(), ctx.Param("id"), req.Text)
	if err != nil {
		respondAssistantError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// @Summary 流式发送消息
// @Description SSE 推送增量内容，结束时发送 end 事件
// @Tags 会话
// @Accept json
// @Produce text/event-stream
// @Param id path string true "会话ID"
// @Router /api/conversations/{id}/stream [post]
func (c *ConversationController) StreamMessage(ctx *gin.Context) {
	var req sendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stream, errChan, err := c.assistantService.StreamMessage(ctx.Request.Context(), ctx.Param("id"), req.Text)
	if err != nil {
		respondAssistantError(ctx, err)
		return
	}

	// 设置SSE响应头
	ctx.Header("Content-Type", util.MimeTextEvent)
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	for content := range stream {
		ctx.SSEvent("message", content)
		ctx.Writer.Flush()
	}

	if err := <-errChan; err != nil {
		logger.Log.Warn("Conversation stream failed", zap.String("conversationId", ctx.Param("id")), zap.Error(err))
		ctx.SSEvent("error", err.Error())
		ctx.Writer.Flush()
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}

// @Summary 重置会话
// @Tags 会话
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/conversations/{id}/restart [post]
func (c *ConversationController) Restart(ctx *gin.Context) {
	conv, err := c.assistantService.RestartConversation(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondAssistantError(ctx, err)
		return
	}
	util.Success(ctx, conv)
}
