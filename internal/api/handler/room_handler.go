package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// RoomHandler 开花房模块 HTTP 处理器
type RoomHandler struct {
	roomSvc service.RoomService
	taskSvc service.RoomTaskService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc service.RoomService, taskSvc service.RoomTaskService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, taskSvc: taskSvc}
}

// ListRooms 获取房间列表
// GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// GetRoom 获取房间详情
// GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	room, err := h.roomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// UpdateRoom 更新房间
// PUT /api/v1/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	// 周期名编辑需要单独权限
	if req.CycleName != nil && !claims.HasPermission("cycles:edit_name") {
		response.Forbidden(c, 10003, "无权限修改周期名称")
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), id, &req, claims.UserID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// StartCycle 开始新周期
// POST /api/v1/rooms/:id/start-cycle
func (h *RoomHandler) StartCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	var req dto.StartCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.StartCycle(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// ResetCycle 结束周期但不归档（旧流程，仅清空房间）
// POST /api/v1/rooms/:id/reset-cycle
func (h *RoomHandler) ResetCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.ResetCycle(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// AddNote 添加房间备注
// POST /api/v1/rooms/:id/notes
func (h *RoomHandler) AddNote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	var req dto.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.AddNote(c.Request.Context(), id, req.Note, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// ListRoomLogs 获取房间事件日志
// GET /api/v1/rooms/:id/logs
func (h *RoomHandler) ListRoomLogs(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.roomSvc.ListLogs(c.Request.Context(), id, limit)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

// CreateTask 创建房间任务
// POST /api/v1/rooms/:id/tasks
func (h *RoomHandler) CreateTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.Created(c, task)
}

// ListTasks 获取房间任务列表
// GET /api/v1/rooms/:id/tasks
func (h *RoomHandler) ListTasks(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "房间ID不能为空")
		return
	}

	tasks, err := h.taskSvc.ListByRoom(c.Request.Context(), id)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, gin.H{"list": tasks})
}

// UpdateTask 更新房间任务
// PUT /api/v1/tasks/:id
func (h *RoomHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, task)
}

// DeleteTask 删除房间任务
// DELETE /api/v1/tasks/:id
func (h *RoomHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.taskSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleRoomError 统一处理开花房模块业务错误
func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 11001, "房间不存在")
	case errors.Is(err, service.ErrRoomCycleActive):
		response.Conflict(c, 11002, "房间已有进行中的周期")
	case errors.Is(err, service.ErrRoomCycleNotActive):
		response.BadRequest(c, 11003, "房间没有进行中的周期")
	case errors.Is(err, service.ErrStrainsDuplicated):
		response.BadRequest(c, 11004, "品种分配中存在重复品种")
	case errors.Is(err, service.ErrStrainsRequired):
		response.BadRequest(c, 11004, "缺少品种分配")
	case errors.Is(err, service.ErrStartDateInvalid):
		response.BadRequest(c, 11005, "日期格式无效")
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 11006, "任务不存在")
	default:
		response.InternalError(c)
	}
}
