package model

import "time"

// 任务类型
const (
	TaskTypeSpray   = "spray"
	TaskTypeFeed    = "feed"
	TaskTypeGeneral = "general"
)

// RoomTask 房间任务 — 对应 room_tasks
type RoomTask struct {
	TaskID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	RoomID        string     `gorm:"type:uuid;not null;index:idx_room_tasks_room_cycle" json:"room_id"`
	CycleID       *string    `gorm:"type:uuid;index:idx_room_tasks_room_cycle"      json:"cycle_id"`
	Type          string     `gorm:"type:varchar(20);not null"                      json:"type"`
	Title         string     `gorm:"type:varchar(300);not null"                     json:"title"`
	Description   string     `gorm:"type:text;not null;default:''"                  json:"description"`
	SprayProduct  string     `gorm:"type:varchar(200);not null;default:''"          json:"spray_product"`
	FeedProduct   string     `gorm:"type:varchar(200);not null;default:''"          json:"feed_product"`
	FeedDosage    string     `gorm:"type:varchar(100);not null;default:''"          json:"feed_dosage"`
	Completed     bool       `gorm:"not null;default:false"                         json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	CompletedBy   *string    `gorm:"type:uuid"                                      json:"completed_by"`
	DayOfCycle    *int       `json:"day_of_cycle"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Priority      string     `gorm:"type:varchar(10);not null;default:'normal'"     json:"priority"`
	SoftDeleteModel
}

// TableName 指定表名
func (RoomTask) TableName() string { return "room_tasks" }
