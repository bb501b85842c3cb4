package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// AuditFilter 审计日志过滤条件
type AuditFilter struct {
	UserID string
	Action string
	Limit  int
	Offset int
}

// AuditLogRepository 操作审计日志数据访问接口
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

// NewAuditLogRepo 创建 AuditLogRepository 实例
func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := q.Limit(limit).Offset(filter.Offset).Find(&logs).Error
	return logs, err
}
