package controller

import (
	"errors"
	"strconv"

	"exam_sync_backend/internal/service"
	"exam_sync_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ExamController struct {
	ExamService *service.ExamService
	PeerService *service.PeerService
}

func NewExamController(examService *service.ExamService, peerService *service.PeerService) *ExamController {
	return &ExamController{ExamService: examService, PeerService: peerService}
}

// @Summary 考试目录（全局共享）
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	exams, total, err := c.ExamService.ListExams(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: exams, Total: total, Page: page, Limit: limit})
}

// @Summary 我参加过的考试
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/exams/mine [get]
func (c *ExamController) ListMyExams(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	exams, err := c.ExamService.ListUserExams(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// @Summary 考试详情（含题目）
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	detail, err := c.ExamService.GetExamDetail(examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 同考试其他用户的平均每题用时
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/peer-timings [get]
func (c *ExamController) GetPeerTimings(ctx *gin.Context) {
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

	timings, err := c.PeerService.FetchPeerTimings(ctx.Request.Context(), examID, user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, timings)
}
