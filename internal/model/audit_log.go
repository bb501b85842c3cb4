package model

import "time"

// AuditLog 操作审计日志 — 对应 audit_logs（只增不改）
type AuditLog struct {
	AuditID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	UserID     *string   `gorm:"type:uuid;index:idx_audit_logs_user_created"    json:"user_id"`
	Action     string    `gorm:"type:varchar(100);not null;index"               json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null;default:''"           json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(64);not null;default:''"           json:"entity_id"`
	Details    JSONMap   `gorm:"type:jsonb;not null;default:'{}'"               json:"details"`
	IP         string    `gorm:"type:varchar(64);not null;default:''"           json:"ip"`
	UserAgent  string    `gorm:"type:text;not null;default:''"                  json:"user_agent"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_audit_logs_user_created,sort:desc" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
