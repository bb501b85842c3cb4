package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// TrimHandler 修剪模块 HTTP 处理器
type TrimHandler struct {
	trimSvc service.TrimService
}

// NewTrimHandler 创建 TrimHandler
func NewTrimHandler(trimSvc service.TrimService) *TrimHandler {
	return &TrimHandler{trimSvc: trimSvc}
}

// ListActive 修剪工作台列表（未完成修剪的归档）
// GET /api/v1/trim/active
func (h *TrimHandler) ListActive(c *gin.Context) {
	archives, err := h.trimSvc.ListActive(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": archives})
}

// ListLogs 获取归档下的修剪日志
// GET /api/v1/trim/archives/:id/logs
func (h *TrimHandler) ListLogs(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	logs, err := h.trimSvc.ListByArchive(c.Request.Context(), id)
	if err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

// DailyStats 按日修剪统计
// GET /api/v1/trim/stats/daily?days=30
func (h *TrimHandler) DailyStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.trimSvc.DailyStats(c.Request.Context(), days)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// AddLog 新增修剪日志
// POST /api/v1/trim/logs
func (h *TrimHandler) AddLog(c *gin.Context) {
	var req dto.CreateTrimLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	log, err := h.trimSvc.AddLog(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.Created(c, log)
}

// DeleteLog 删除修剪日志（软删除并重算归档指标）
// DELETE /api/v1/trim/logs/:id
func (h *TrimHandler) DeleteLog(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日志ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.trimSvc.DeleteLog(c.Request.Context(), id, callerID); err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.OK(c, nil)
}

// RestoreLog 恢复修剪日志
// POST /api/v1/trim/logs/:id/restore
func (h *TrimHandler) RestoreLog(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日志ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	log, err := h.trimSvc.RestoreLog(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.OK(c, log)
}

// UpdateTrimArchive 补录归档灯光/面积参数并重算效率指标
// PUT /api/v1/trim/archives/:id
func (h *TrimHandler) UpdateTrimArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	var req dto.UpdateTrimArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	archive, err := h.trimSvc.UpdateTrimArchive(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.OK(c, archive)
}

// CompleteTrim 标记归档修剪完成
// POST /api/v1/trim/archives/:id/complete
func (h *TrimHandler) CompleteTrim(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	archive, err := h.trimSvc.CompleteTrim(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleTrimError(c, err)
		return
	}

	response.OK(c, archive)
}

// handleTrimError 统一处理修剪模块业务错误
func (h *TrimHandler) handleTrimError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrArchiveNotFound):
		response.NotFound(c, 13001, "归档不存在")
	case errors.Is(err, service.ErrTrimLogNotFound):
		response.NotFound(c, 14001, "修剪日志不存在")
	case errors.Is(err, service.ErrTrimLogNotDeleted):
		response.BadRequest(c, 14002, "修剪日志未被删除，无法恢复")
	case errors.Is(err, service.ErrTrimCompleted):
		response.Conflict(c, 14003, "归档修剪已完成，不可再修改")
	case errors.Is(err, service.ErrTrimAlreadyCompleted):
		response.Conflict(c, 14004, "归档修剪已标记完成")
	case errors.Is(err, service.ErrTrimDateInvalid):
		response.BadRequest(c, 14005, "修剪日期格式无效")
	default:
		response.InternalError(c)
	}
}
