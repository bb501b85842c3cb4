package service

import (
	"context"

	"go.uber.org/zap"

	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// AuditService 操作审计接口
// Record 失败只记日志不影响主流程
type AuditService interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, details map[string]interface{})
	List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLog, error)
}

type clientInfoKey struct{}

type clientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo 把请求来源（IP 与 User-Agent）挂到上下文，
// 由 HTTP 层注入，Record 落库时一并写入
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{IP: ip, UserAgent: userAgent})
}

func clientInfoFrom(ctx context.Context) clientInfo {
	if info, ok := ctx.Value(clientInfoKey{}).(clientInfo); ok {
		return info
	}
	return clientInfo{}
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Record(ctx context.Context, userID, action, entityType, entityID string, details map[string]interface{}) {
	info := clientInfoFrom(ctx)
	entry := &model.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := s.repo.Audit.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLog, error) {
	logs, err := s.repo.Audit.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, err
	}
	return logs, nil
}
