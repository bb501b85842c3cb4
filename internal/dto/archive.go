package dto

// ── 周期归档模块 DTO ──

// StrainYieldInput 按品种收获数据（编辑重量用）
type StrainYieldInput struct {
	Name        string  `json:"name"         binding:"required,min=1,max=200"`
	PlantsCount int     `json:"plants_count" binding:"omitempty,min=0"`
	WetWeight   float64 `json:"wet_weight"   binding:"omitempty,gte=0"`
}

// UpdateArchiveRequest 更新归档请求
// total_wet_weight / strain_data 的修改需要 harvest:edit_weights 权限
type UpdateArchiveRequest struct {
	CycleName      *string            `json:"cycle_name"       binding:"omitempty,max=200"`
	Notes          *string            `json:"notes"`
	TotalWetWeight *float64           `json:"total_wet_weight" binding:"omitempty,gte=0"`
	StrainData     []StrainYieldInput `json:"strain_data"      binding:"omitempty,dive"`
}

// HarvestAndArchiveRequest 手动收获并归档请求（跳过称重会话）
type HarvestAndArchiveRequest struct {
	TotalWetWeight float64 `json:"total_wet_weight" binding:"required,gte=0"`
	Notes          string  `json:"notes"`
}

// StrainStats 单品种历史统计
type StrainStats struct {
	Strain          string  `json:"strain"`
	Cycles          int     `json:"cycles"`
	TotalWetWeight  float64 `json:"total_wet_weight"`
	TotalTrimWeight float64 `json:"total_trim_weight"`
	AvgWetPerPlant  float64 `json:"avg_wet_per_plant"`
}

// MonthStats 单月归档统计
type MonthStats struct {
	Month           string  `json:"month"` // YYYY-MM
	Archives        int     `json:"archives"`
	TotalWetWeight  float64 `json:"total_wet_weight"`
	TotalTrimWeight float64 `json:"total_trim_weight"`
}

// RoomStats 单房间历史统计
type RoomStats struct {
	RoomID          string  `json:"room_id"`
	RoomName        string  `json:"room_name"`
	Cycles          int     `json:"cycles"`
	TotalWetWeight  float64 `json:"total_wet_weight"`
	TotalTrimWeight float64 `json:"total_trim_weight"`
}

// ArchiveStatsResponse 归档汇总统计响应，by_strain 取湿重前10
type ArchiveStatsResponse struct {
	TotalArchives   int           `json:"total_archives"`
	TotalWetWeight  float64       `json:"total_wet_weight"`
	TotalTrimWeight float64       `json:"total_trim_weight"`
	TotalPlants     int           `json:"total_plants"`
	AvgDryToWet     *float64      `json:"avg_dry_to_wet_percent,omitempty"`
	ByStrain        []StrainStats `json:"by_strain"`
	ByMonth         []MonthStats  `json:"by_month"`
	ByRoom          []RoomStats   `json:"by_room"`
}
