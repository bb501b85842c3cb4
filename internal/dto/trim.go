package dto

// ── 修剪模块 DTO ──

// CreateTrimLogRequest 新增修剪日志请求
type CreateTrimLogRequest struct {
	ArchiveID string  `json:"archive_id" binding:"required,uuid"`
	Weight    float64 `json:"weight"     binding:"required,gt=0"`
	Date      *string `json:"date"`      // "2026-08-15"，缺省为当前时间
}

// UpdateTrimArchiveRequest 更新归档修剪相关参数请求
// 用于补录灯光/面积信息以计算克/瓦与克/平米，以及爆米花花重量与品质评级
type UpdateTrimArchiveRequest struct {
	LampCount     *int     `json:"lamp_count"     binding:"omitempty,min=0"`
	WattsPerLamp  *int     `json:"watts_per_lamp" binding:"omitempty,min=0"`
	SquareMeters  *float64 `json:"square_meters"  binding:"omitempty,gt=0"`
	PopcornWeight *float64 `json:"popcorn_weight" binding:"omitempty,gte=0"`
	Quality       *string  `json:"quality"        binding:"omitempty,max=50"`
}

// TrimDayStats 单日修剪统计
type TrimDayStats struct {
	Date        string  `json:"date"` // "2026-08-15"
	TotalWeight float64 `json:"total_weight"`
	LogsCount   int     `json:"logs_count"`
	Rooms       int     `json:"rooms"`
}

// TrimDailyStatsResponse 按日修剪统计响应
type TrimDailyStatsResponse struct {
	Days        []TrimDayStats `json:"days"`
	TotalWeight float64        `json:"total_weight"`
}

// ActiveTrimArchive 待修剪归档条目（修剪工作台列表）
type ActiveTrimArchive struct {
	ArchiveID       string   `json:"archive_id"`
	RoomName        string   `json:"room_name"`
	CycleName       string   `json:"cycle_name"`
	Strain          string   `json:"strain"`
	HarvestDate     string   `json:"harvest_date"`
	TrimStatus      string   `json:"trim_status"`
	TotalWetWeight  float64  `json:"total_wet_weight"`
	TotalTrimWeight float64  `json:"total_trim_weight"`
	DryToWetPercent *float64 `json:"dry_to_wet_percent,omitempty"`
}
