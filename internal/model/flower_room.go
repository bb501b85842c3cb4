package model

import (
	"database/sql/driver"
	"math"
	"strings"
	"time"
)

// StrainAllocation 房间内单个品种的株数分配
type StrainAllocation struct {
	Name        string `json:"name"`
	PlantsCount int    `json:"plantsCount"`
}

// StrainAllocations 对应 flower_rooms.flower_strains JSONB
type StrainAllocations []StrainAllocation

func (a *StrainAllocations) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	return jsonbScan(src, a)
}

func (a StrainAllocations) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return jsonbValue([]StrainAllocation(a))
}

// Names 返回分配中的品种名列表（保持顺序）
func (a StrainAllocations) Names() []string {
	names := make([]string, 0, len(a))
	for _, s := range a {
		names = append(names, s.Name)
	}
	return names
}

// Label 生成房间品种展示标签，多品种以 " / " 连接
func (a StrainAllocations) Label() string {
	return strings.Join(a.Names(), " / ")
}

// TotalPlants 分配株数之和
func (a StrainAllocations) TotalPlants() int {
	total := 0
	for _, s := range a {
		total += s.PlantsCount
	}
	return total
}

// Lighting 房间灯光配置
type Lighting struct {
	LampType     string `json:"lampType"`
	LampCount    int    `json:"lampCount"`
	WattsPerLamp int    `json:"wattsPerLamp"`
}

func (l *Lighting) Scan(src interface{}) error {
	return jsonbScan(src, l)
}

func (l Lighting) Value() (driver.Value, error) {
	return jsonbValue(l)
}

// TotalWatts 房间总功率
func (l Lighting) TotalWatts() int {
	return l.LampCount * l.WattsPerLamp
}

// FlowerRoom 开花房 — 对应 flower_rooms
type FlowerRoom struct {
	RoomID              string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	RoomNumber          int               `gorm:"not null;uniqueIndex"                           json:"room_number"`
	Name                string            `gorm:"type:varchar(100);not null"                     json:"name"`
	CycleName           string            `gorm:"type:varchar(200);not null;default:''"          json:"cycle_name"`
	Strain              string            `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	FlowerStrains       StrainAllocations `gorm:"type:jsonb;not null;default:'[]'"               json:"flower_strains"`
	PlantsCount         int               `gorm:"not null;default:0"                             json:"plants_count"`
	StartDate           *time.Time        `json:"start_date"`
	FloweringDays       int               `gorm:"not null;default:56"                            json:"flowering_days"`
	ExpectedHarvestDate *time.Time        `json:"expected_harvest_date"`
	Notes               string            `gorm:"type:text;not null;default:''"                  json:"notes"`
	IsActive            bool              `gorm:"not null;default:false"                         json:"is_active"`
	IsTestRoom          bool              `gorm:"not null;default:false"                         json:"is_test_room"`
	CurrentCycleID      *string           `gorm:"type:uuid"                                      json:"current_cycle_id"`
	TotalCycles         int               `gorm:"not null;default:0"                             json:"total_cycles"`
	SquareMeters        *float64          `json:"square_meters"`
	Lighting            Lighting          `gorm:"type:jsonb;not null;default:'{}'"               json:"lighting"`
	Environment         JSONMap           `gorm:"type:jsonb;not null;default:'{}'"               json:"environment"`
	RoomLayout          JSONMap           `gorm:"type:jsonb;not null;default:'{}'"               json:"room_layout"`
	BaseModel
}

// TableName 指定表名
func (FlowerRoom) TableName() string { return "flower_rooms" }

// daysPassed 自开始日期起完整经过的天数（开始当天为 0）
func (r *FlowerRoom) daysPassed(now time.Time) int {
	if !r.IsActive || r.StartDate == nil {
		return 0
	}
	days := int(now.Sub(*r.StartDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

// CurrentDay 当前开花天数（第 1 天起算），未开始返回 0
func (r *FlowerRoom) CurrentDay(now time.Time) int {
	if !r.IsActive || r.StartDate == nil {
		return 0
	}
	return r.daysPassed(now) + 1
}

// Progress 周期进度百分比，按经过天数取整，上限 100
func (r *FlowerRoom) Progress(now time.Time) float64 {
	if r.FloweringDays <= 0 {
		return 0
	}
	p := math.Round(float64(r.daysPassed(now)) / float64(r.FloweringDays) * 100)
	if p > 100 {
		p = 100
	}
	return p
}

// DaysRemaining 剩余天数，最少为 0
func (r *FlowerRoom) DaysRemaining(now time.Time) int {
	d := r.FloweringDays - r.daysPassed(now)
	if d < 0 {
		d = 0
	}
	return d
}
