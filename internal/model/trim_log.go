package model

import "time"

// TrimLog 修剪日志 — 对应 trim_logs
// weight 为当日修剪得到的干重克数
type TrimLog struct {
	TrimLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"trim_log_id"`
	ArchiveID string    `gorm:"type:uuid;not null;index:idx_trim_logs_archive_date" json:"archive_id"`
	RoomID    string    `gorm:"type:uuid;not null"                             json:"room_id"`
	RoomName  string    `gorm:"type:varchar(100);not null;default:''"          json:"room_name"`
	Strain    string    `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	Weight    float64   `gorm:"not null"                                       json:"weight"`
	Date      time.Time `gorm:"not null;index:idx_trim_logs_archive_date,sort:desc" json:"date"`
	CreatedBy *string   `gorm:"type:uuid"                                      json:"created_by"`
	SoftDeleteModel
}

// TableName 指定表名
func (TrimLog) TableName() string { return "trim_logs" }
