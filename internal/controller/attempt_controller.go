package controller

import (
	"errors"

	"exam_sync_backend/internal/service"
	"exam_sync_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AttemptController struct {
	ExamService *service.ExamService
}

func NewAttemptController(examService *service.ExamService) *AttemptController {
	return &AttemptController{ExamService: examService}
}

// @Summary 我的作答记录
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/attempt [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	attempt, err := c.ExamService.GetAttempt(user.UserID, examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 作答分析（判分、分科统计、用时、连对连错、键修订分差）
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.AttemptAnalysis}
// @Router /api/exams/{id}/analysis [get]
func (c *AttemptController) GetAnalysis(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	analysis, err := c.ExamService.GetAttemptAnalysis(user.UserID, examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, analysis)
}
