package dto

// ── 育苗 / 克隆模块 DTO ──

// UpsertCloneCutRequest 创建或更新房间克隆剪切计划请求
type UpsertCloneCutRequest struct {
	RoomID   string   `json:"room_id"  binding:"omitempty,uuid"`
	CutDate  string   `json:"cut_date" binding:"required"`
	Strains  []string `json:"strains"  binding:"required,min=1,dive,min=1"`
	Quantity int      `json:"quantity" binding:"required,min=1"`
	Notes    string   `json:"notes"`
}

// CreateVegBatchRequest 创建育苗批次请求
type CreateVegBatchRequest struct {
	Name                string   `json:"name"                   binding:"omitempty,max=200"`
	SourceCloneCutID    *string  `json:"source_clone_cut_id"    binding:"omitempty,uuid"`
	Strains             []string `json:"strains"                binding:"required,min=1,dive,min=1"`
	Quantity            int      `json:"quantity"               binding:"required,min=1"`
	CutDate             string   `json:"cut_date"               binding:"required"`
	TransplantedToVegAt *string  `json:"transplanted_to_veg_at"`
	VegDaysTarget       *int     `json:"veg_days_target"        binding:"omitempty,min=1"`
	Notes               string   `json:"notes"`
}

// UpdateVegBatchRequest 更新育苗批次请求
type UpdateVegBatchRequest struct {
	Name          *string  `json:"name"            binding:"omitempty,max=200"`
	Quantity      *int     `json:"quantity"        binding:"omitempty,min=0"`
	VegDaysTarget *int     `json:"veg_days_target" binding:"omitempty,min=1"`
	Notes         *string  `json:"notes"`
	Strains       []string `json:"strains"         binding:"omitempty,min=1,dive,min=1"`
}

// TransplantToFlowerRequest 育苗批次转入开花房请求
type TransplantToFlowerRequest struct {
	FlowerRoomID string `json:"flower_room_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity"       binding:"required,min=1"`
}
