package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// PropagationHandler 育苗与克隆模块 HTTP 处理器
type PropagationHandler struct {
	propSvc service.PropagationService
}

// NewPropagationHandler 创建 PropagationHandler
func NewPropagationHandler(propSvc service.PropagationService) *PropagationHandler {
	return &PropagationHandler{propSvc: propSvc}
}

// ────────────────────── 克隆剪切 ──────────────────────

// UpsertCloneCut 创建或覆盖房间的克隆剪切计划
// PUT /api/v1/clone-cuts
func (h *PropagationHandler) UpsertCloneCut(c *gin.Context) {
	var req dto.UpsertCloneCutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cut, err := h.propSvc.UpsertCloneCut(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, cut)
}

// ListCloneCuts 获取克隆剪切计划列表
// GET /api/v1/clone-cuts
func (h *PropagationHandler) ListCloneCuts(c *gin.Context) {
	cuts, err := h.propSvc.ListCloneCuts(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": cuts})
}

// MarkCloneCutDone 标记剪切计划完成
// POST /api/v1/clone-cuts/:id/done
func (h *PropagationHandler) MarkCloneCutDone(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "剪切计划ID不能为空")
		return
	}

	cut, err := h.propSvc.MarkCloneCutDone(c.Request.Context(), id)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, cut)
}

// DeleteCloneCut 删除剪切计划
// DELETE /api/v1/clone-cuts/:id
func (h *PropagationHandler) DeleteCloneCut(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "剪切计划ID不能为空")
		return
	}

	if err := h.propSvc.DeleteCloneCut(c.Request.Context(), id); err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 育苗批次 ──────────────────────

// CreateVegBatch 创建育苗批次
// POST /api/v1/veg-batches
func (h *PropagationHandler) CreateVegBatch(c *gin.Context) {
	var req dto.CreateVegBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.propSvc.CreateVegBatch(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.Created(c, batch)
}

// ListVegBatches 获取育苗批次列表
// GET /api/v1/veg-batches?active=true
func (h *PropagationHandler) ListVegBatches(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	batches, err := h.propSvc.ListVegBatches(c.Request.Context(), activeOnly)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": batches})
}

// GetVegBatch 获取育苗批次详情
// GET /api/v1/veg-batches/:id
func (h *PropagationHandler) GetVegBatch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "批次ID不能为空")
		return
	}

	batch, err := h.propSvc.GetVegBatch(c.Request.Context(), id)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, batch)
}

// UpdateVegBatch 更新育苗批次
// PUT /api/v1/veg-batches/:id
func (h *PropagationHandler) UpdateVegBatch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "批次ID不能为空")
		return
	}

	var req dto.UpdateVegBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	batch, err := h.propSvc.UpdateVegBatch(c.Request.Context(), id, &req)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, batch)
}

// TransplantToFlower 转入开花房
// POST /api/v1/veg-batches/:id/transplant
func (h *PropagationHandler) TransplantToFlower(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "批次ID不能为空")
		return
	}

	var req dto.TransplantToFlowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.propSvc.TransplantToFlower(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, batch)
}

// DeleteVegBatch 删除育苗批次
// DELETE /api/v1/veg-batches/:id
func (h *PropagationHandler) DeleteVegBatch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "批次ID不能为空")
		return
	}

	if err := h.propSvc.DeleteVegBatch(c.Request.Context(), id); err != nil {
		h.handlePropagationError(c, err)
		return
	}

	response.OK(c, nil)
}

// handlePropagationError 统一处理育苗模块业务错误
func (h *PropagationHandler) handlePropagationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 11001, "房间不存在")
	case errors.Is(err, service.ErrCloneCutNotFound):
		response.NotFound(c, 16001, "克隆剪切计划不存在")
	case errors.Is(err, service.ErrVegBatchNotFound):
		response.NotFound(c, 16002, "育苗批次不存在")
	case errors.Is(err, service.ErrVegQuantityExceeded):
		response.BadRequest(c, 16003, "转入数量超过批次剩余数量")
	case errors.Is(err, service.ErrCutDateInvalid):
		response.BadRequest(c, 16004, "日期格式无效")
	default:
		response.InternalError(c)
	}
}
