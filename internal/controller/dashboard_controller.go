package controller

import (
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// @Summary 获取仪表盘数据
// @Description 获取用户的学习时长、技能分布、每周进度和 AI 洞察，5分钟内结果不变
// @Tags 仪表盘
// @Produce json
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/dashboard/metrics/{userId} [get]
func (c *DashboardController) GetMetrics(ctx *gin.Context) {
	metrics, err := c.DashboardService.GetDashboardMetrics(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, metrics)
}

// @Summary 平台实时数据
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/dashboard/realtime [get]
func (c *DashboardController) GetRealTime(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.GetRealTimeMetrics())
}

// @Summary 推荐课程
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/dashboard/courses [get]
func (c *DashboardController) GetCourses(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.GetRecommendedCourses())
}

type recordActivityRequest struct {
	UserID      string            `json:"userId" binding:"required"`
	Type        string            `json:"type" binding:"required"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// @Summary 记录学习活动
// @Description ai_chat 增加0.1小时学习时长，course_completed 增加一门完成课程；未知用户忽略
// @Tags 仪表盘
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/dashboard/activity [post]
func (c *DashboardController) RecordActivity(ctx *gin.Context) {
	var req recordActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	activity := c.DashboardService.RecordActivity(ctx.Request.Context(), req.UserID, req.Type, req.Description, req.Metadata)
	util.Success(ctx, gin.H{
		"recorded": activity != nil,
		"activity": activity,
	})
}
