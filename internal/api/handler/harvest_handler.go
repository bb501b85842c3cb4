package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// HarvestHandler 收获会话模块 HTTP 处理器
type HarvestHandler struct {
	harvestSvc service.HarvestService
}

// NewHarvestHandler 创建 HarvestHandler
func NewHarvestHandler(harvestSvc service.HarvestService) *HarvestHandler {
	return &HarvestHandler{harvestSvc: harvestSvc}
}

// CreateSession 创建收获会话（同房间重复创建返回已有会话）
// POST /api/v1/harvest/sessions
func (h *HarvestHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.harvestSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.Created(c, session)
}

// ListSessions 获取会话列表
// GET /api/v1/harvest/sessions?status=in_progress
func (h *HarvestHandler) ListSessions(c *gin.Context) {
	sessions, err := h.harvestSvc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// GetSession 获取会话详情（含逐株称重记录）
// GET /api/v1/harvest/sessions/:id
func (h *HarvestHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	session, err := h.harvestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// GetActiveSession 获取房间当前进行中的会话
// GET /api/v1/harvest/rooms/:roomId/active
func (h *HarvestHandler) GetActiveSession(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	session, err := h.harvestSvc.GetActiveByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// UpdateSession 更新会话物流参数
// PUT /api/v1/harvest/sessions/:id
func (h *HarvestHandler) UpdateSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, err := h.harvestSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// CompleteSession 完成会话并触发周期归档
// POST /api/v1/harvest/sessions/:id/complete
func (h *HarvestHandler) CompleteSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, archive, err := h.harvestSvc.Complete(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, gin.H{"session": session, "archive": archive})
}

// AddPlant 录入单株湿重
// POST /api/v1/harvest/sessions/:id/plants
func (h *HarvestHandler) AddPlant(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.AddPlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	plant, err := h.harvestSvc.AddPlant(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.Created(c, plant)
}

// RemovePlant 撤销称重记录（仅限录入者本人在撤销窗口内）
// DELETE /api/v1/harvest/sessions/:id/plants/:plantId
func (h *HarvestHandler) RemovePlant(c *gin.Context) {
	id := c.Param("id")
	plantID := c.Param("plantId")
	if id == "" || plantID == "" {
		response.BadRequest(c, 10001, "会话ID与记录ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.harvestSvc.RemovePlant(c.Request.Context(), id, plantID, callerID); err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetPlantErrorNote 给称重记录附加错误备注
// PUT /api/v1/harvest/sessions/:id/plants/:plantId/error-note
func (h *HarvestHandler) SetPlantErrorNote(c *gin.Context) {
	id := c.Param("id")
	plantID := c.Param("plantId")
	if id == "" || plantID == "" {
		response.BadRequest(c, 10001, "会话ID与记录ID不能为空")
		return
	}

	var req dto.PlantErrorNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	plant, err := h.harvestSvc.SetPlantErrorNote(c.Request.Context(), id, plantID, req.Note, callerID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, plant)
}

// JoinCrew 加入收获团队
// POST /api/v1/harvest/sessions/:id/crew
func (h *HarvestHandler) JoinCrew(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.JoinCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.harvestSvc.JoinCrew(c.Request.Context(), id, req.Role, callerID, GetUserName(c))
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// ForceJoinCrew 强制加入收获团队（抢占称重员角色）
// POST /api/v1/harvest/sessions/:id/crew/force
func (h *HarvestHandler) ForceJoinCrew(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.JoinCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.harvestSvc.ForceJoinCrew(c.Request.Context(), id, req.Role, callerID, GetUserName(c))
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// LeaveCrew 退出收获团队
// DELETE /api/v1/harvest/sessions/:id/crew
func (h *HarvestHandler) LeaveCrew(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.harvestSvc.LeaveCrew(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, session)
}

// CrewStats 团队效率统计
// GET /api/v1/harvest/sessions/:id/crew-stats
func (h *HarvestHandler) CrewStats(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	stats, err := h.harvestSvc.CrewStats(c.Request.Context(), id)
	if err != nil {
		h.handleHarvestError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleHarvestError 统一处理收获会话模块业务错误
func (h *HarvestHandler) handleHarvestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 11001, "房间不存在")
	case errors.Is(err, service.ErrRoomCycleNotActive):
		response.BadRequest(c, 11003, "房间没有进行中的周期")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12001, "收获会话不存在")
	case errors.Is(err, service.ErrSessionCompleted):
		response.Conflict(c, 12002, "收获会话已完成")
	case errors.Is(err, service.ErrPlantNotFound):
		response.NotFound(c, 12003, "称重记录不存在")
	case errors.Is(err, service.ErrPlantAlreadyRecorded):
		response.Conflict(c, 12004, "该株已录入称重")
	case errors.Is(err, service.ErrPlantNumberOutOfRange):
		response.BadRequest(c, 12005, "株号超出房间株数范围")
	case errors.Is(err, service.ErrPlantUndoExpired):
		response.BadRequest(c, 12006, "撤销窗口已过，请改用错误备注")
	case errors.Is(err, service.ErrPlantUndoForbidden):
		response.Forbidden(c, 12007, "只能撤销自己录入的称重记录")
	case errors.Is(err, service.ErrCrewRoleTaken):
		response.Conflict(c, 12008, "称重员角色已被占用")
	case errors.Is(err, service.ErrNotCrewMember):
		response.BadRequest(c, 12009, "不是该会话的团队成员")
	case errors.Is(err, service.ErrArchiveNotFound):
		response.NotFound(c, 13001, "归档不存在")
	default:
		response.InternalError(c)
	}
}
