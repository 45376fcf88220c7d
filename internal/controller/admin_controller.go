package controller

import (
	"errors"

	"exam_sync_backend/internal/service"
	"exam_sync_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

type keyUpdateRequest struct {
	Key   string `json:"key"`
	Bonus bool   `json:"bonus"`
}

// @Summary 修订题目生效键（bonus=true 为送分）
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/{id}/key [put]
func (c *AdminController) UpdateQuestionKey(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("id"))
	if questionID == 0 {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req keyUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !req.Bonus && req.Key == "" {
		util.BadRequest(ctx, "key or bonus required")
		return
	}

	question, err := c.AdminService.UpdateQuestionKey(questionID, req.Key, req.Bonus)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		util.NotFound(ctx)
	case errors.Is(err, service.ErrUnparseableKey):
		util.BadRequest(ctx, err.Error())
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, question)
	}
}

// @Summary 还原题目生效键为原始抓取键
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/{id}/key [delete]
func (c *AdminController) ResetQuestionKey(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("id"))
	if questionID == 0 {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	question, err := c.AdminService.ResetQuestionKey(questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, question)
}
