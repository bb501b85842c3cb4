package dto

// ── 品种模块 DTO ──

// CreateStrainRequest 创建品种请求
type CreateStrainRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// UpdateStrainRequest 重命名品种请求
type UpdateStrainRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// MergeStrainsRequest 合并品种请求
// target_id 必须包含在 strain_ids 中，合并后仅保留目标品种
type MergeStrainsRequest struct {
	StrainIDs []string `json:"strain_ids" binding:"required,min=2,dive,uuid"`
	TargetID  string   `json:"target_id"  binding:"required,uuid"`
}

// MergeStrainsResponse 合并品种结果
type MergeStrainsResponse struct {
	TargetID         string         `json:"target_id"`
	TargetName       string         `json:"target_name"`
	MergedStrains    []string       `json:"merged_strains"`
	PreservedStrains []string       `json:"preserved"`
	UpdatedCounts    map[string]int `json:"updated_counts"`
}
