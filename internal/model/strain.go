package model

import "strings"

// Strain 品种库条目 — 对应 strains
// 未删除条目之间名称不区分大小写唯一（数据库部分唯一索引保证）
type Strain struct {
	StrainID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"strain_id"`
	Name     string `gorm:"type:varchar(200);not null"                     json:"name"`
	SoftDeleteModel
}

// TableName 指定表名
func (Strain) TableName() string { return "strains" }

// NormalizeStrainName 品种名规范化：去首尾空白、连续空白折叠为单空格、小写。
// 用于大小写不敏感的比较与合并匹配。
func NormalizeStrainName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
