package model

import "time"

// 房间事件类型
const (
	RoomLogTypeCycleStart   = "cycle_start"
	RoomLogTypeCycleArchive = "cycle_archive"
	RoomLogTypeNote         = "note"
	RoomLogTypeProblem      = "problem"
	RoomLogTypeTask         = "task"
	RoomLogTypeEnvironment  = "environment"
)

// RoomLog 房间事件日志 — 对应 room_logs（只增不改）
type RoomLog struct {
	LogID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	RoomID      string    `gorm:"type:uuid;not null;index:idx_room_logs_room_cycle" json:"room_id"`
	CycleID     *string   `gorm:"type:uuid;index:idx_room_logs_room_cycle"       json:"cycle_id"`
	Type        string    `gorm:"type:varchar(30);not null;index"                json:"type"`
	Title       string    `gorm:"type:varchar(300);not null"                     json:"title"`
	Description string    `gorm:"type:text;not null;default:''"                  json:"description"`
	Data        JSONMap   `gorm:"type:jsonb;not null;default:'{}'"               json:"data"`
	UserID      *string   `gorm:"type:uuid"                                      json:"user_id"`
	DayOfCycle  *int      `json:"day_of_cycle"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (RoomLog) TableName() string { return "room_logs" }
