package model

import (
	"strings"
	"time"
)

// CloneCut 克隆剪切批次 — 对应 clone_cuts
// 每个房间最多一条未完成计划（按 room_id upsert）
type CloneCut struct {
	CloneCutID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clone_cut_id"`
	RoomID          *string    `gorm:"type:uuid"                                      json:"room_id"`
	CutDate         time.Time  `gorm:"not null"                                       json:"cut_date"`
	Strains         StringList `gorm:"type:jsonb;not null;default:'[]'"               json:"strains"`
	Strain          string     `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	Quantity        int        `gorm:"not null;default:0"                             json:"quantity"`
	InitialQuantity int        `gorm:"not null;default:0"                             json:"initial_quantity"`
	IsDone          bool       `gorm:"not null;default:false"                         json:"is_done"`
	Notes           string     `gorm:"type:text;not null;default:''"                  json:"notes"`
	BaseModel
}

// TableName 指定表名
func (CloneCut) TableName() string { return "clone_cuts" }

// StrainLabel 多品种展示标签，以 ", " 连接
func (c *CloneCut) StrainLabel() string {
	if len(c.Strains) > 0 {
		return strings.Join(c.Strains, ", ")
	}
	return c.Strain
}
