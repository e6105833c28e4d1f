package app

import (
	"creative_learning_backend/pkg/monitoring"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const swaggerDocURL = "/swagger/doc.json"

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(swaggerDocURL)))
	router.GET("/metrics", monitoring.PrometheusHandler())

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	api := router.Group("/api")
	{
		api.GET("/health", c.health.Check)

		// 大模型中转与图片分析
		api.POST("/mistral", c.relay.Relay)
		api.POST("/analyze-image", c.image.Analyze)

		a.registerDashboardRoutes(api, c)
		a.registerConversationRoutes(api, c)
		a.registerAssistantRoutes(api, c)
	}
}

func (a *App) registerDashboardRoutes(rg *gin.RouterGroup, c *controllers) {
	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/metrics/:userId", c.dashboard.GetMetrics)
		dashboard.GET("/realtime", c.dashboard.GetRealTime)
		dashboard.GET("/courses", c.dashboard.GetCourses)
		dashboard.POST("/activity", c.dashboard.RecordActivity)
	}
}

func (a *App) registerConversationRoutes(rg *gin.RouterGroup, c *controllers) {
	conversations := rg.Group("/conversations")
	{
		conversations.POST("", c.conversation.Create)
		conversations.GET("", c.conversation.List)
		conversations.GET("/:id", c.conversation.Get)
		conversations.POST("/:id/messages", c.conversation.SendMessage)
		conversations.POST("/:id/stream", c.conversation.StreamMessage)
		conversations.POST("/:id/restart", c.conversation.Restart)
	}
}

func (a *App) registerAssistantRoutes(rg *gin.RouterGroup, c *controllers) {
	assistant := rg.Group("/assistant")
	{
		assistant.POST("/chat", c.assistant.Chat)
		assistant.POST("/moderate", c.assistant.Moderate)
		assistant.POST("/classify", c.assistant.Classify)
		assistant.POST("/completion", c.assistant.Completion)
		assistant.POST("/design-feedback", c.assistant.DesignFeedback)
		assistant.POST("/variations", c.assistant.Variation)
		assistant.POST("/course-recommendations", c.assistant.CourseRecommendations)
		assistant.POST("/render", c.assistant.Render)
	}
}
