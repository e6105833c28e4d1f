package controller

import (
	"context"
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	aiService    *service.AIService
	imageService *service.ImageService
	cacheDriver  string
	redis        *redis.Client
}

func NewHealthController(aiService *service.AIService, imageService *service.ImageService, cacheDriver string, rdb *redis.Client) *HealthController {
	return &HealthController{
		aiService:    aiService,
		imageService: imageService,
		cacheDriver:  cacheDriver,
		redis:        rdb,
	}
}

// @Summary 健康检查
// @Description redis 不可用时返回503
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := gin.H{
		"status":       "ok",
		"aiConfigured": c.aiService.Configured(),
		"imageEnabled": c.imageService.Settings().Enabled,
		"cacheDriver":  c.cacheDriver,
		"timestamp":    time.Now().Format(util.ISOTimeFormat),
	}

	if c.redis == nil {
		util.Success(ctx, status)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(pingCtx).Err(); err != nil {
		status["status"] = "degraded"
		status["redis"] = err.Error()
		ctx.JSON(http.StatusServiceUnavailable, util.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "redis unavailable",
			Data:    status,
		})
		return
	}
	status["redis"] = "ok"
	util.Success(ctx, status)
}
