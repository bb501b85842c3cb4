package model

import (
	"strings"
	"time"
)

// VegBatch 育苗批次 — 对应 veg_batches
type VegBatch struct {
	VegBatchID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"veg_batch_id"`
	Name                   string     `gorm:"type:varchar(200);not null;default:''"          json:"name"`
	SourceCloneCutID       *string    `gorm:"type:uuid"                                      json:"source_clone_cut_id"`
	Strains                StringList `gorm:"type:jsonb;not null;default:'[]'"               json:"strains"`
	Strain                 string     `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	Quantity               int        `gorm:"not null;default:0"                             json:"quantity"`
	InitialQuantity        int        `gorm:"not null;default:0"                             json:"initial_quantity"`
	SentToFlowerCount      int        `gorm:"not null;default:0"                             json:"sent_to_flower_count"`
	CutDate                time.Time  `gorm:"not null"                                       json:"cut_date"`
	TransplantedToVegAt    time.Time  `gorm:"not null"                                       json:"transplanted_to_veg_at"`
	VegDaysTarget          int        `gorm:"not null;default:21"                            json:"veg_days_target"`
	FlowerRoomID           *string    `gorm:"type:uuid;index"                                json:"flower_room_id"`
	TransplantedToFlowerAt *time.Time `json:"transplanted_to_flower_at"`
	Notes                  string     `gorm:"type:text;not null;default:''"                  json:"notes"`
	BaseModel
}

// TableName 指定表名
func (VegBatch) TableName() string { return "veg_batches" }

// VegDays 实际育苗天数（转入开花后以转入时间为终点）
func (b *VegBatch) VegDays(now time.Time) int {
	end := now
	if b.TransplantedToFlowerAt != nil {
		end = *b.TransplantedToFlowerAt
	}
	days := int(end.Sub(b.TransplantedToVegAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

// StrainLabel 多品种展示标签，以 ", " 连接
func (b *VegBatch) StrainLabel() string {
	if len(b.Strains) > 0 {
		return strings.Join(b.Strains, ", ")
	}
	return b.Strain
}
