package dto

import "bloomtrack/backend/internal/model"

// ── 开花房模块 DTO ──

// StrainAllocationInput 开始周期时的品种分配
type StrainAllocationInput struct {
	Name        string `json:"name"         binding:"required,min=1,max=200"`
	PlantsCount int    `json:"plants_count" binding:"required,min=1"`
}

// StartCycleRequest 开始新周期请求
// strains 为多品种分配；单品种也可用扁平的 strain + plants_count 简写
type StartCycleRequest struct {
	CycleName     string                  `json:"cycle_name"     binding:"omitempty,max=200"`
	Strains       []StrainAllocationInput `json:"strains"        binding:"omitempty,dive"`
	Strain        string                  `json:"strain"         binding:"omitempty,max=200"`
	PlantsCount   int                     `json:"plants_count"   binding:"omitempty,min=1"`
	FloweringDays *int                    `json:"flowering_days" binding:"omitempty,min=1,max=365"`
	StartDate     *string                 `json:"start_date"`    // "2026-08-01"，缺省为当前时间
}

// LightingInput 灯光配置
type LightingInput struct {
	LampType     string `json:"lamp_type"      binding:"omitempty,max=100"`
	LampCount    int    `json:"lamp_count"     binding:"omitempty,min=0"`
	WattsPerLamp int    `json:"watts_per_lamp" binding:"omitempty,min=0"`
}

// UpdateRoomRequest 更新房间请求
// cycle_name 的修改需要 cycles:edit_name 权限
type UpdateRoomRequest struct {
	Name          *string                `json:"name"           binding:"omitempty,min=1,max=100"`
	CycleName     *string                `json:"cycle_name"     binding:"omitempty,max=200"`
	Notes         *string                `json:"notes"`
	FloweringDays *int                   `json:"flowering_days" binding:"omitempty,min=1,max=365"`
	PlantsCount   *int                   `json:"plants_count"   binding:"omitempty,min=0"`
	SquareMeters  *float64               `json:"square_meters"  binding:"omitempty,gt=0"`
	IsTestRoom    *bool                  `json:"is_test_room"`
	Lighting      *LightingInput         `json:"lighting"`
	Environment   map[string]interface{} `json:"environment"`
	RoomLayout    map[string]interface{} `json:"room_layout"`
}

// AddNoteRequest 添加房间备注请求
type AddNoteRequest struct {
	Note string `json:"note" binding:"required,min=1"`
}

// RoomResponse 房间信息响应（含派生字段）
type RoomResponse struct {
	model.FlowerRoom
	CurrentDay    int     `json:"current_day"`
	Progress      float64 `json:"progress"`
	DaysRemaining int     `json:"days_remaining"`
	TotalWatts    int     `json:"total_watts"`
}
