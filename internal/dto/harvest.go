package dto

// ── 收获会话模块 DTO ──

// CreateSessionRequest 创建收获会话请求（同房间重复创建返回已有会话）
type CreateSessionRequest struct {
	RoomID           string   `json:"room_id"            binding:"required,uuid"`
	DistanceToScale  *float64 `json:"distance_to_scale"  binding:"omitempty,gte=0"`
	PotWeight        *float64 `json:"pot_weight"         binding:"omitempty,gte=0"`
	BranchesPerPlant *int     `json:"branches_per_plant" binding:"omitempty,min=0"`
	PotsPerTrip      *int     `json:"pots_per_trip"      binding:"omitempty,min=0"`
	PlantsPerTrip    *int     `json:"plants_per_trip"    binding:"omitempty,min=0"`
}

// UpdateSessionRequest 更新会话物流参数请求
type UpdateSessionRequest struct {
	DistanceToScale  *float64 `json:"distance_to_scale"  binding:"omitempty,gte=0"`
	PotWeight        *float64 `json:"pot_weight"         binding:"omitempty,gte=0"`
	BranchesPerPlant *int     `json:"branches_per_plant" binding:"omitempty,min=0"`
	PotsPerTrip      *int     `json:"pots_per_trip"      binding:"omitempty,min=0"`
	PlantsPerTrip    *int     `json:"plants_per_trip"    binding:"omitempty,min=0"`
}

// AddPlantRequest 录入单株湿重请求
// 允许0克登记（植株损毁仍需占用株号）
type AddPlantRequest struct {
	PlantNumber int     `json:"plant_number" binding:"required,min=1"`
	WetWeight   float64 `json:"wet_weight"   binding:"gte=0"`
	Strain      string  `json:"strain"       binding:"omitempty,max=200"`
}

// PlantErrorNoteRequest 给称重记录附加错误备注请求
type PlantErrorNoteRequest struct {
	Note string `json:"note" binding:"required,min=1"`
}

// JoinCrewRequest 加入收获团队请求
type JoinCrewRequest struct {
	Role string `json:"role" binding:"required,oneof=weighing carrying cutting"`
}

// CompleteSessionRequest 完成会话请求（触发周期归档）
type CompleteSessionRequest struct {
	Notes string `json:"notes"`
}

// CrewStatsResponse 团队效率统计响应
type CrewStatsResponse struct {
	SessionID         string  `json:"session_id"`
	PlantsRecorded    int     `json:"plants_recorded"`
	TotalWetWeight    float64 `json:"total_wet_weight"`
	AvgWeightPerPlant float64 `json:"avg_weight_per_plant"`
	DurationMinutes   float64 `json:"duration_minutes"`
	PlantsPerHour     float64 `json:"plants_per_hour"`
	EstimatedTrips    int     `json:"estimated_trips"`
	DistanceWalked    float64 `json:"distance_walked_meters"`
	CrewSize          int     `json:"crew_size"`
}
