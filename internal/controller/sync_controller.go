package controller

import (
	"errors"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
	"exam_sync_backend/internal/service"
	"exam_sync_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncService *service.SyncService
}

func NewSyncController(syncService *service.SyncService) *SyncController {
	return &SyncController{SyncService: syncService}
}

type syncRequest struct {
	Credentials model.SyncCredentials `json:"credentials" binding:"required"`
	Filters     model.SyncFilters     `json:"filters"`
}

// @Summary 同步门户账号的考试结果
// @Description 同一账号同时只允许一次同步，冲突时返回 409，调用方应轮询进度
// @Tags 同步
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.SyncResult}
// @Failure 409 {object} util.Response
// @Router /api/sync [post]
func (c *SyncController) StartSync(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req syncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SyncService.SyncExternalAccount(ctx.Request.Context(), user.UserID, req.Credentials, req.Filters, nil)
	switch {
	case errors.Is(err, util.ErrSyncInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrUnsupportedProvider),
		errors.Is(err, util.ErrCredentialFailure),
		errors.Is(err, normalize.ErrMissingExamID):
		util.BadRequest(ctx, err.Error())
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, result)
	}
}

// @Summary 查询同步进度
// @Tags 同步
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.SyncProgress}
// @Router /api/sync/progress [get]
func (c *SyncController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.SyncService.Progress(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if progress == nil {
		util.Success(ctx, gin.H{"stage": "idle"})
		return
	}
	util.Success(ctx, progress)
}
