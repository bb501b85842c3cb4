package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/internal/service"
	"bloomtrack/backend/pkg/response"
)

// AuditHandler 操作审计模块 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 查询审计日志
// GET /api/v1/audit-logs?user_id=&action=&limit=&offset=
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	logs, err := h.auditSvc.List(c.Request.Context(), repository.AuditFilter{
		UserID: c.Query("user_id"),
		Action: c.Query("action"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": logs})
}
