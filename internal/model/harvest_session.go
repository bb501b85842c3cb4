package model

import (
	"database/sql/driver"
	"time"
)

// 收获会话状态
const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

// 收获团队角色
const (
	CrewRoleWeighing = "weighing" // 称重员（全场唯一）
	CrewRoleCarrying = "carrying" // 搬运员
	CrewRoleCutting  = "cutting"  // 剪枝员
)

// CrewMember 收获团队成员
type CrewMember struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CrewMembers 对应 harvest_sessions.crew JSONB
type CrewMembers []CrewMember

func (c *CrewMembers) Scan(src interface{}) error {
	if src == nil {
		*c = nil
		return nil
	}
	return jsonbScan(src, c)
}

func (c CrewMembers) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return jsonbValue([]CrewMember(c))
}

// FindByUser 返回指定用户的成员记录，不存在返回 -1
func (c CrewMembers) FindByUser(userID string) int {
	for i, m := range c {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// HasRole 判断是否已有成员占用指定角色
func (c CrewMembers) HasRole(role string) bool {
	for _, m := range c {
		if m.Role == role {
			return true
		}
	}
	return false
}

// HarvestSession 收获称重会话 — 对应 harvest_sessions
type HarvestSession struct {
	SessionID   string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	RoomID      string      `gorm:"type:uuid;not null;index:idx_harvest_sessions_room_status" json:"room_id"`
	RoomNumber  int         `gorm:"not null;default:0"                             json:"room_number"`
	RoomName    string      `gorm:"type:varchar(100);not null;default:''"          json:"room_name"`
	CycleName   string      `gorm:"type:varchar(200);not null;default:''"          json:"cycle_name"`
	Strain      string      `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	PlantsCount int         `gorm:"not null;default:0"                             json:"plants_count"`
	Status      string      `gorm:"type:varchar(20);not null;default:'in_progress';index:idx_harvest_sessions_room_status" json:"status"`
	Crew        CrewMembers `gorm:"type:jsonb;not null;default:'[]'"               json:"crew"`
	StartedAt   time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at"`

	// 物流参数（团队效率统计用）
	DistanceToScale *float64 `json:"distance_to_scale"`
	PotWeight       *float64 `json:"pot_weight"`
	BranchesPerPlant *int    `json:"branches_per_plant"`
	PotsPerTrip     *int     `json:"pots_per_trip"`
	PlantsPerTrip   *int     `json:"plants_per_trip"`

	Plants []HarvestPlant `gorm:"foreignKey:SessionID;references:SessionID" json:"plants,omitempty"`
	BaseModel
}

// TableName 指定表名
func (HarvestSession) TableName() string { return "harvest_sessions" }

// TotalWetWeight 已录入株的湿重合计
func (s *HarvestSession) TotalWetWeight() float64 {
	total := 0.0
	for _, p := range s.Plants {
		total += p.WetWeight
	}
	return total
}

// StrainBreakdown 按品种汇总株数与湿重（保持首次出现顺序）
func (s *HarvestSession) StrainBreakdown() []StrainYield {
	order := make([]string, 0)
	byName := make(map[string]*StrainYield)
	for _, p := range s.Plants {
		name := p.Strain
		if name == "" {
			name = s.Strain
		}
		y, ok := byName[name]
		if !ok {
			y = &StrainYield{Name: name}
			byName[name] = y
			order = append(order, name)
		}
		y.PlantsCount++
		y.WetWeight += p.WetWeight
	}
	result := make([]StrainYield, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result
}

// HarvestPlant 会话内单株称重记录 — 对应 harvest_plants
type HarvestPlant struct {
	PlantID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plant_id"`
	SessionID   string    `gorm:"type:uuid;not null;uniqueIndex:ux_harvest_plants_session_number" json:"session_id"`
	PlantNumber int       `gorm:"not null;uniqueIndex:ux_harvest_plants_session_number" json:"plant_number"`
	Strain      string    `gorm:"type:varchar(200);not null;default:''"          json:"strain"`
	WetWeight   float64   `gorm:"not null"                                       json:"wet_weight"`
	RecordedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"recorded_at"`
	RecordedBy  *string   `gorm:"type:uuid"                                      json:"recorded_by"`
	ErrorNote   string    `gorm:"type:text;not null;default:''"                  json:"error_note"`
}

// TableName 指定表名
func (HarvestPlant) TableName() string { return "harvest_plants" }
