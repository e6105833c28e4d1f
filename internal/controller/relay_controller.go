package controller

import (
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const relayConfidence = 95

// RelayController 浏览器到大模型的转发接口，返回扁平 JSON 而不是统一信封
type RelayController struct {
	relayService *service.RelayService
	content      *content.Table
}

func NewRelayController(relayService *service.RelayService, table *content.Table) *RelayController {
	return &RelayController{relayService: relayService, content: table}
}

// Relay 按类型转发提示词
// @Summary 大模型转发
// @Description 根据 type 套用提示词模板后调用 chat/completions，image / learning 类型解析回答中的 JSON
// @Tags AI
// @Accept json
// @Produce json
// @Param request body service.RelayRequest true "提示词"
// @Success 200 {object} map[string]interface{}
// @Router /api/mistral [post]
func (c *RelayController) Relay(ctx *gin.Context) {
	var req service.RelayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body", "success": false})
		return
	}

	result, err := c.relayService.Relay(ctx.Request.Context(), req)
	if err != nil {
		c.handleError(ctx, req, err)
		return
	}

	switch result.Kind {
	case service.RelayImage:
		ctx.JSON(http.StatusOK, extractionBody(gin.H{
			"imageAnalysis": result.ImageAnalysis,
			"fullResponse":  result.Text,
			"success":       true,
			"usage":         result.Usage,
		}, result.Extraction))
	case service.RelayLearning:
		ctx.JSON(http.StatusOK, extractionBody(gin.H{
			"learningJourney": result.LearningJourney,
			"fullResponse":    result.Text,
			"success":         true,
			"usage":           result.Usage,
		}, result.Extraction))
	default:
		ctx.JSON(http.StatusOK, gin.H{
			"text":       result.Text,
			"response":   result.Text,
			"success":    true,
			"confidence": relayConfidence,
			"timestamp":  time.Now().UTC().Format(util.ISOTimeFormat),
			"usage":      result.Usage,
		})
	}
}

func extractionBody(body gin.H, ex util.Extraction) gin.H {
	body["parsed"] = ex.Parsed
	if ex.Reason != "" {
		body["fallbackReason"] = ex.Reason
	}
	return body
}

func (c *RelayController) handleError(ctx *gin.Context, req service.RelayRequest, err error) {
	var upstream *util.UpstreamError
	switch {
	case errors.Is(err, util.ErrAINotConfigured):
		logger.Log.Error("API key not available")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "API key not configured",
			"success": false,
			"message": c.content.Message(content.ScenarioAPIKeyMissing),
		})
	case errors.Is(err, util.ErrPromptRequired), errors.Is(err, util.ErrInvalidRequestType):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		logger.Log.Error("AI API error", zap.Int("status", upstream.StatusCode), zap.String("body", upstream.Body))
		kind, _ := service.ResolveRelayKind(req.Type)
		ctx.JSON(upstream.StatusCode, gin.H{"error": service.FailureMessage(kind)})
	default:
		logger.Log.Error("Relay failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"success": false,
			"message": c.content.Message(content.ScenarioAssistantUnavailable),
			"details": err.Error(),
		})
	}
}
