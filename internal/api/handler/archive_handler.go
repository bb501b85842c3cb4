package handler

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// ArchiveHandler 周期归档模块 HTTP 处理器
type ArchiveHandler struct {
	archiveSvc service.ArchiveService
	exportSvc  service.ExportService
}

// NewArchiveHandler 创建 ArchiveHandler
func NewArchiveHandler(archiveSvc service.ArchiveService, exportSvc service.ExportService) *ArchiveHandler {
	return &ArchiveHandler{archiveSvc: archiveSvc, exportSvc: exportSvc}
}

// ListArchives 获取归档列表
// GET /api/v1/archives?room_id=&strain=&year=&limit=&offset=
func (h *ArchiveHandler) ListArchives(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	archives, err := h.archiveSvc.List(c.Request.Context(), repository.ArchiveFilter{
		RoomID: c.Query("room_id"),
		Strain: c.Query("strain"),
		Year:   year,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": archives})
}

// GetArchive 获取归档详情
// GET /api/v1/archives/:id
func (h *ArchiveHandler) GetArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	archive, err := h.archiveSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OK(c, archive)
}

// GetStats 归档汇总统计
// GET /api/v1/archives/stats
func (h *ArchiveHandler) GetStats(c *gin.Context) {
	stats, err := h.archiveSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// ListDeleted 获取已删除归档列表（回收站）
// GET /api/v1/archives/deleted
func (h *ArchiveHandler) ListDeleted(c *gin.Context) {
	archives, err := h.archiveSvc.ListDeleted(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": archives})
}

// UpdateArchive 更新归档
// PUT /api/v1/archives/:id
func (h *ArchiveHandler) UpdateArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	var req dto.UpdateArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	// 重量数据修改需要单独权限
	if (req.TotalWetWeight != nil || len(req.StrainData) > 0) &&
		!claims.HasPermission("harvest:edit_weights") {
		response.Forbidden(c, 10003, "无权限修改收获重量")
		return
	}

	archive, err := h.archiveSvc.Update(c.Request.Context(), id, &req, claims.UserID)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OK(c, archive)
}

// DeleteArchive 删除归档（软删除）
// DELETE /api/v1/archives/:id
func (h *ArchiveHandler) DeleteArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.archiveSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OK(c, nil)
}

// RestoreArchive 恢复已删除归档
// POST /api/v1/archives/:id/restore
func (h *ArchiveHandler) RestoreArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "归档ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	archive, err := h.archiveSvc.Restore(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OK(c, archive)
}

// HarvestAndArchive 手动收获并归档（跳过称重会话）
// POST /api/v1/rooms/:id/harvest-archive
func (h *ArchiveHandler) HarvestAndArchive(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	var req dto.HarvestAndArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	archive, err := h.archiveSvc.HarvestAndArchive(c.Request.Context(), roomID, &req, callerID)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OK(c, archive)
}

// ExportArchives 导出归档为 Excel
// GET /api/v1/archives/export
func (h *ArchiveHandler) ExportArchives(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportArchives(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportNoArchives) {
			response.BadRequest(c, 18001, "暂无归档数据可导出")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// HarvestCalendar 预计收获日期的 iCalendar 订阅
// GET /api/v1/rooms/harvest-calendar.ics
func (h *ArchiveHandler) HarvestCalendar(c *gin.Context) {
	ical, err := h.exportSvc.HarvestCalendar(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Data(200, "text/calendar; charset=utf-8", []byte(ical))
}

// handleArchiveError 统一处理归档模块业务错误
func (h *ArchiveHandler) handleArchiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrArchiveNotFound):
		response.NotFound(c, 13001, "归档不存在")
	case errors.Is(err, service.ErrArchiveNotDeleted):
		response.BadRequest(c, 13002, "归档未被删除，无法恢复")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 11001, "房间不存在")
	case errors.Is(err, service.ErrRoomCycleNotActive):
		response.BadRequest(c, 11003, "房间没有进行中的周期")
	default:
		response.InternalError(c)
	}
}
