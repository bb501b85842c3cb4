package dto

// ── 房间任务模块 DTO ──

// CreateTaskRequest 创建房间任务请求
type CreateTaskRequest struct {
	Type          string  `json:"type"           binding:"required,oneof=spray feed general"`
	Title         string  `json:"title"          binding:"required,min=1,max=300"`
	Description   string  `json:"description"`
	SprayProduct  string  `json:"spray_product"  binding:"omitempty,max=200"`
	FeedProduct   string  `json:"feed_product"   binding:"omitempty,max=200"`
	FeedDosage    string  `json:"feed_dosage"    binding:"omitempty,max=100"`
	DayOfCycle    *int    `json:"day_of_cycle"   binding:"omitempty,min=1"`
	ScheduledDate *string `json:"scheduled_date"`
	Priority      string  `json:"priority"       binding:"omitempty,oneof=low normal high"`
}

// UpdateTaskRequest 更新房间任务请求
type UpdateTaskRequest struct {
	Title         *string `json:"title"          binding:"omitempty,min=1,max=300"`
	Description   *string `json:"description"`
	SprayProduct  *string `json:"spray_product"  binding:"omitempty,max=200"`
	FeedProduct   *string `json:"feed_product"   binding:"omitempty,max=200"`
	FeedDosage    *string `json:"feed_dosage"    binding:"omitempty,max=100"`
	Completed     *bool   `json:"completed"`
	DayOfCycle    *int    `json:"day_of_cycle"   binding:"omitempty,min=1"`
	ScheduledDate *string `json:"scheduled_date"`
	Priority      *string `json:"priority"       binding:"omitempty,oneof=low normal high"`
}
