package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// StrainHandler 品种模块 HTTP 处理器
type StrainHandler struct {
	strainSvc service.StrainService
}

// NewStrainHandler 创建 StrainHandler
func NewStrainHandler(strainSvc service.StrainService) *StrainHandler {
	return &StrainHandler{strainSvc: strainSvc}
}

// ListStrains 获取品种列表
// GET /api/v1/strains
func (h *StrainHandler) ListStrains(c *gin.Context) {
	strains, err := h.strainSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": strains})
}

// CreateStrain 创建品种（同名已删除条目会被恢复）
// POST /api/v1/strains
func (h *StrainHandler) CreateStrain(c *gin.Context) {
	var req dto.CreateStrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	strain, err := h.strainSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.Created(c, strain)
}

// UpdateStrain 重命名品种
// PUT /api/v1/strains/:id
func (h *StrainHandler) UpdateStrain(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "品种ID不能为空")
		return
	}

	var req dto.UpdateStrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	strain, err := h.strainSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.OK(c, strain)
}

// DeleteStrain 删除品种（软删除）
// DELETE /api/v1/strains/:id
func (h *StrainHandler) DeleteStrain(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "品种ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.strainSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListDeleted 获取已删除品种列表
// GET /api/v1/strains/deleted
func (h *StrainHandler) ListDeleted(c *gin.Context) {
	strains, err := h.strainSvc.ListDeleted(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": strains})
}

// RestoreStrain 恢复已删除品种
// POST /api/v1/strains/:id/restore
func (h *StrainHandler) RestoreStrain(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "品种ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	strain, err := h.strainSvc.Restore(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.OK(c, strain)
}

// RestoreRecent 批量恢复最近删除的品种，默认回溯 24 小时
// POST /api/v1/strains/restore-recent?minutes=60
func (h *StrainHandler) RestoreRecent(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	within := 24 * time.Hour
	if minutes, err := strconv.Atoi(c.Query("minutes")); err == nil && minutes > 0 {
		within = time.Duration(minutes) * time.Minute
	}

	restored, err := h.strainSvc.RestoreRecent(c.Request.Context(), within, callerID)
	if err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": restored})
}

// MergeStrains 合并品种
// POST /api/v1/strains/merge
func (h *StrainHandler) MergeStrains(c *gin.Context) {
	var req dto.MergeStrainsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.strainSvc.Merge(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStrainError(c, err)
		return
	}

	response.OK(c, result)
}

// handleStrainError 统一处理品种模块业务错误
func (h *StrainHandler) handleStrainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStrainNotFound):
		response.NotFound(c, 15001, "品种不存在")
	case errors.Is(err, service.ErrStrainExists):
		response.Conflict(c, 15002, "同名品种已存在")
	case errors.Is(err, service.ErrStrainNotDeleted):
		response.BadRequest(c, 15003, "品种未被删除，无法恢复")
	case errors.Is(err, service.ErrMergeTargetInvalid):
		response.BadRequest(c, 15004, "合并目标必须包含在待合并品种中")
	default:
		response.InternalError(c)
	}
}
