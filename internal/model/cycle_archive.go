package model

import (
	"database/sql/driver"
	"time"
)

// 修剪状态（只允许 pending → in_progress → completed 正向推进，
// 全部日志删除后可回退 in_progress → pending）
const (
	TrimStatusPending    = "pending"
	TrimStatusInProgress = "in_progress"
	TrimStatusCompleted  = "completed"
)

// StrainYield 按品种的收获汇总
type StrainYield struct {
	Name        string  `json:"name"`
	PlantsCount int     `json:"plantsCount"`
	WetWeight   float64 `json:"wetWeight"`
}

// StrainYields 对应 cycle_archives.strain_data JSONB
type StrainYields []StrainYield

func (y *StrainYields) Scan(src interface{}) error {
	if src == nil {
		*y = nil
		return nil
	}
	return jsonbScan(src, y)
}

func (y StrainYields) Value() (driver.Value, error) {
	if y == nil {
		return "[]", nil
	}
	return jsonbValue([]StrainYield(y))
}

// HarvestData 收获结果快照。DryWeight 随修剪日志重算，
// PopcornWeight / Quality 由修剪阶段补录。
type HarvestData struct {
	TotalWetWeight    float64 `json:"totalWetWeight"`
	DryWeight         float64 `json:"dryWeight"`
	PopcornWeight     float64 `json:"popcornWeight"`
	Quality           string  `json:"quality,omitempty"`
	PlantsHarvested   int     `json:"plantsHarvested"`
	AvgWeightPerPlant float64 `json:"avgWeightPerPlant"`
	SessionID         string  `json:"sessionId,omitempty"`
}

func (d *HarvestData) Scan(src interface{}) error {
	return jsonbScan(src, d)
}

func (d HarvestData) Value() (driver.Value, error) {
	return jsonbValue(d)
}

// ArchiveMetrics 周期效率指标（修剪数据变化时重算）
type ArchiveMetrics struct {
	TotalWetWeight      float64  `json:"totalWetWeight"`
	TotalTrimWeight     float64  `json:"totalTrimWeight"`
	AvgWeightPerPlant   float64  `json:"avgWeightPerPlant"`
	DryToWetPercent     *float64 `json:"dryToWetPercent,omitempty"`
	GramsPerPlant       *float64 `json:"gramsPerPlant,omitempty"`
	GramsPerDay         *float64 `json:"gramsPerDay,omitempty"`
	GramsPerWatt        *float64 `json:"gramsPerWatt,omitempty"`
	GramsPerSquareMeter *float64 `json:"gramsPerSquareMeter,omitempty"`
}

func (m *ArchiveMetrics) Scan(src interface{}) error {
	return jsonbScan(src, m)
}

func (m ArchiveMetrics) Value() (driver.Value, error) {
	return jsonbValue(m)
}

// CloneSnapshot 克隆剪切溯源快照
type CloneSnapshot struct {
	CutDate         time.Time  `json:"cutDate"`
	Strains         StringList `json:"strains"`
	Quantity        int        `json:"quantity"`
	InitialQuantity int        `json:"initialQuantity"`
}

// VegSnapshot 育苗阶段溯源快照
type VegSnapshot struct {
	TransplantedToVegAt time.Time  `json:"transplantedToVegAt"`
	VegDays             int        `json:"vegDays"`
	Strains             StringList `json:"strains"`
	Quantity            int        `json:"quantity"`
}

// TaskSnapshot 归档时保存的已完成任务快照
type TaskSnapshot struct {
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	DayOfCycle  *int       `json:"dayOfCycle,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// TaskSnapshots 对应 cycle_archives.completed_tasks JSONB
type TaskSnapshots []TaskSnapshot

func (t *TaskSnapshots) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	return jsonbScan(src, t)
}

func (t TaskSnapshots) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return jsonbValue([]TaskSnapshot(t))
}

// IssueSnapshot 周期内问题记录快照
type IssueSnapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DayOfCycle  *int      `json:"dayOfCycle,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IssueSnapshots 对应 cycle_archives.issues JSONB
type IssueSnapshots []IssueSnapshot

func (i *IssueSnapshots) Scan(src interface{}) error {
	if src == nil {
		*i = nil
		return nil
	}
	return jsonbScan(src, i)
}

func (i IssueSnapshots) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	return jsonbValue([]IssueSnapshot(i))
}

// CloneDataField 可空克隆快照字段
type CloneDataField struct {
	*CloneSnapshot
}

func (f *CloneDataField) Scan(src interface{}) error {
	if src == nil {
		f.CloneSnapshot = nil
		return nil
	}
	f.CloneSnapshot = &CloneSnapshot{}
	return jsonbScan(src, f.CloneSnapshot)
}

func (f CloneDataField) Value() (driver.Value, error) {
	if f.CloneSnapshot == nil {
		return nil, nil
	}
	return jsonbValue(f.CloneSnapshot)
}

// VegDataField 可空育苗快照字段
type VegDataField struct {
	*VegSnapshot
}

func (f *VegDataField) Scan(src interface{}) error {
	if src == nil {
		f.VegSnapshot = nil
		return nil
	}
	f.VegSnapshot = &VegSnapshot{}
	return jsonbScan(src, f.VegSnapshot)
}

func (f VegDataField) Value() (driver.Value, error) {
	if f.VegSnapshot == nil {
		return nil, nil
	}
	return jsonbValue(f.VegSnapshot)
}

// CycleArchive 周期归档 — 对应 cycle_archives
type CycleArchive struct {
	ArchiveID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	RoomID        string         `gorm:"type:uuid;not null"                             json:"room_id"`
	RoomNumber    int            `gorm:"not null"                                       json:"room_number"`
	RoomName      string         `gorm:"type:varchar(100);not null"                     json:"room_name"`
	SquareMeters  *float64       `json:"square_meters"`
	Lighting      Lighting       `gorm:"type:jsonb;not null;default:'{}'"               json:"lighting"`
	CycleName     string         `gorm:"type:varchar(200);not null;default:''"          json:"cycle_name"`
	Strain        string         `gorm:"type:varchar(200);not null"                     json:"strain"`
	Strains       StringList     `gorm:"type:jsonb;not null;default:'[]'"               json:"strains"`
	StrainData    StrainYields   `gorm:"type:jsonb;not null;default:'[]'"               json:"strain_data"`
	PlantsCount   int            `gorm:"not null"                                       json:"plants_count"`
	StartDate     time.Time      `gorm:"not null"                                       json:"start_date"`
	HarvestDate   time.Time      `gorm:"not null"                                       json:"harvest_date"`
	FloweringDays int            `gorm:"not null"                                       json:"flowering_days"`
	ActualDays    int            `gorm:"not null"                                       json:"actual_days"`
	HarvestData   HarvestData    `gorm:"type:jsonb;not null;default:'{}'"               json:"harvest_data"`
	Metrics       ArchiveMetrics `gorm:"type:jsonb;not null;default:'{}'"               json:"metrics"`
	Environment   JSONMap        `gorm:"type:jsonb;not null;default:'{}'"               json:"environment"`
	Notes         string         `gorm:"type:text;not null;default:''"                  json:"notes"`
	CloneData     CloneDataField `gorm:"type:jsonb"                                     json:"clone_data,omitempty"`
	VegData       VegDataField   `gorm:"type:jsonb"                                     json:"veg_data,omitempty"`
	CompletedTasks TaskSnapshots `gorm:"type:jsonb;not null;default:'[]'"               json:"completed_tasks"`
	HarvestMap    JSONMap        `gorm:"type:jsonb"                                     json:"harvest_map,omitempty"`
	CrewData      CrewMembers    `gorm:"type:jsonb"                                     json:"crew_data,omitempty"`
	Issues        IssueSnapshots `gorm:"type:jsonb;not null;default:'[]'"               json:"issues"`
	TrimStatus    string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"trim_status"`
	TrimCompletedAt *time.Time   `json:"trim_completed_at"`
	SoftDeleteModel
}

// TableName 指定表名
func (CycleArchive) TableName() string { return "cycle_archives" }
