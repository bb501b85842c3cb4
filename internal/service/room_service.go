package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/config"
	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// ── 开花房模块业务错误 ──

var (
	ErrRoomNotFound       = errors.New("房间不存在")
	ErrRoomCycleActive    = errors.New("房间已有进行中的周期")
	ErrRoomCycleNotActive = errors.New("房间没有进行中的周期")
	ErrStrainsDuplicated  = errors.New("品种分配中存在重复品种")
	ErrStrainsRequired    = errors.New("缺少品种分配")
	ErrStartDateInvalid   = errors.New("开始日期格式无效")
)

// RoomService 开花房业务接口
type RoomService interface {
	EnsureSeedRooms(ctx context.Context) error
	List(ctx context.Context) ([]dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	StartCycle(ctx context.Context, id string, req *dto.StartCycleRequest, callerID string) (*dto.RoomResponse, error)
	ResetCycle(ctx context.Context, id string, callerID string) (*dto.RoomResponse, error)
	AddNote(ctx context.Context, id string, note string, callerID string) (*dto.RoomResponse, error)
	ListLogs(ctx context.Context, id string, limit int) ([]model.RoomLog, error)
}

type roomService struct {
	repo   *repository.Repository
	farm   *config.FarmConfig
	audit  AuditService
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, farm *config.FarmConfig, audit AuditService, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, farm: farm, audit: audit, logger: logger}
}

// ────────────────────── EnsureSeedRooms ──────────────────────

// EnsureSeedRooms 首次启动时按配置数量预置房间（已有房间则跳过）
func (s *roomService) EnsureSeedRooms(ctx context.Context) error {
	count, err := s.repo.Room.Count(ctx)
	if err != nil {
		s.logger.Error("统计房间数量失败", zap.Error(err))
		return err
	}
	if count > 0 {
		return nil
	}

	for i := 1; i <= s.farm.RoomCount; i++ {
		room := &model.FlowerRoom{
			RoomNumber:    i,
			Name:          fmt.Sprintf("Room %d", i),
			FloweringDays: s.farm.DefaultFloweringDays,
			FlowerStrains: model.StrainAllocations{},
			Lighting:      model.Lighting{},
			Environment:   model.JSONMap{},
			RoomLayout:    model.JSONMap{},
		}
		if err := s.repo.Room.Create(ctx, room); err != nil {
			s.logger.Error("预置房间失败", zap.Int("room_number", i), zap.Error(err))
			return err
		}
	}

	s.logger.Info("预置开花房完成", zap.Int("count", s.farm.RoomCount))
	return nil
}

// ────────────────────── List ──────────────────────

func (s *roomService) List(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("列出房间失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i], now))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRoomResponse(room, time.Now()), nil
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.CycleName != nil {
		room.CycleName = *req.CycleName
	}
	if req.Notes != nil {
		room.Notes = *req.Notes
	}
	if req.FloweringDays != nil {
		room.FloweringDays = *req.FloweringDays
		if room.IsActive && room.StartDate != nil {
			harvest := room.StartDate.AddDate(0, 0, room.FloweringDays)
			room.ExpectedHarvestDate = &harvest
		}
	}
	if req.PlantsCount != nil {
		room.PlantsCount = *req.PlantsCount
	}
	if req.SquareMeters != nil {
		room.SquareMeters = req.SquareMeters
	}
	if req.IsTestRoom != nil {
		room.IsTestRoom = *req.IsTestRoom
	}
	if req.Lighting != nil {
		room.Lighting = model.Lighting{
			LampType:     req.Lighting.LampType,
			LampCount:    req.Lighting.LampCount,
			WattsPerLamp: req.Lighting.WattsPerLamp,
		}
	}
	if req.Environment != nil {
		room.Environment = req.Environment
	}
	if req.RoomLayout != nil {
		room.RoomLayout = req.RoomLayout
	}

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("更新房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toRoomResponse(room, time.Now()), nil
}

// ────────────────────── StartCycle ──────────────────────

func (s *roomService) StartCycle(ctx context.Context, id string, req *dto.StartCycleRequest, callerID string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if room.IsActive {
		return nil, ErrRoomCycleActive
	}

	// 扁平的单品种简写等价于只含一条分配的 strains
	inputs := req.Strains
	if len(inputs) == 0 {
		if req.Strain == "" || req.PlantsCount < 1 {
			return nil, ErrStrainsRequired
		}
		inputs = []dto.StrainAllocationInput{{Name: req.Strain, PlantsCount: req.PlantsCount}}
	}

	seen := make(map[string]bool, len(inputs))
	allocations := make(model.StrainAllocations, 0, len(inputs))
	for _, in := range inputs {
		key := model.NormalizeStrainName(in.Name)
		if seen[key] {
			return nil, ErrStrainsDuplicated
		}
		seen[key] = true
		allocations = append(allocations, model.StrainAllocation{
			Name:        in.Name,
			PlantsCount: in.PlantsCount,
		})
	}

	startDate := time.Now()
	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrStartDateInvalid
		}
		startDate = parsed
	}

	floweringDays := s.farm.DefaultFloweringDays
	if req.FloweringDays != nil {
		floweringDays = *req.FloweringDays
	}

	// TotalCycles 只统计已归档的周期，默认周期名为下一个序号
	cycleName := req.CycleName
	if cycleName == "" {
		cycleName = fmt.Sprintf("Cycle %d", room.TotalCycles+1)
	}

	cycleID := uuid.New().String()
	harvestDate := startDate.AddDate(0, 0, floweringDays)

	// 开始新周期时重置上一周期的运行字段
	room.CycleName = cycleName
	room.FlowerStrains = allocations
	room.Strain = allocations.Label()
	room.PlantsCount = allocations.TotalPlants()
	room.StartDate = &startDate
	room.FloweringDays = floweringDays
	room.ExpectedHarvestDate = &harvestDate
	room.Notes = ""
	room.IsActive = true
	room.CurrentCycleID = &cycleID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("开始周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recordLog(ctx, room, model.RoomLogTypeCycleStart, "周期开始",
		fmt.Sprintf("周期 %s 开始，%d 株", cycleName, room.PlantsCount), callerID)
	s.audit.Record(ctx, callerID, "room.start_cycle", "flower_room", room.RoomID, map[string]interface{}{
		"cycle_id":     cycleID,
		"cycle_name":   cycleName,
		"plants_count": room.PlantsCount,
		"strains":      allocations.Names(),
	})

	return toRoomResponse(room, time.Now()), nil
}

// ────────────────────── ResetCycle ──────────────────────

// ResetCycle 结束周期但不生成归档（收获后直接清场的简化路径）。
// 周期任务一并软删除；需要归档数据时走 harvest-archive 接口。
func (s *roomService) ResetCycle(ctx context.Context, id string, callerID string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomCycleNotActive
	}

	s.recordLog(ctx, room, model.RoomLogTypeCycleArchive, "周期结束",
		fmt.Sprintf("周期 %s 结束（未归档）", room.CycleName), callerID)

	cycleID := room.CurrentCycleID

	room.IsActive = false
	room.CycleName = ""
	room.Strain = ""
	room.FlowerStrains = model.StrainAllocations{}
	room.PlantsCount = 0
	room.StartDate = nil
	room.ExpectedHarvestDate = nil
	room.Notes = ""
	room.CurrentCycleID = nil
	if room.RoomLayout != nil {
		room.RoomLayout["plantPositions"] = []interface{}{}
	}

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("重置房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if cycleID != nil {
		if err := s.repo.Task.SoftDeleteByCycle(ctx, room.RoomID, *cycleID); err != nil {
			s.logger.Warn("清理周期任务失败", zap.String("room_id", room.RoomID), zap.Error(err))
		}
	}

	s.audit.Record(ctx, callerID, "room.reset_cycle", "flower_room", room.RoomID, nil)
	return toRoomResponse(room, time.Now()), nil
}

// ────────────────────── AddNote ──────────────────────

func (s *roomService) AddNote(ctx context.Context, id string, note string, callerID string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04"), note)
	if room.Notes == "" {
		room.Notes = line
	} else {
		room.Notes = room.Notes + "\n" + line
	}

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("添加房间备注失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recordLog(ctx, room, model.RoomLogTypeNote, "备注", note, callerID)

	return toRoomResponse(room, time.Now()), nil
}

// ────────────────────── ListLogs ──────────────────────

func (s *roomService) ListLogs(ctx context.Context, id string, limit int) ([]model.RoomLog, error) {
	if _, err := s.repo.Room.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	logs, err := s.repo.RoomLog.ListByRoom(ctx, id, limit)
	if err != nil {
		s.logger.Error("查询房间日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return logs, nil
}

// ── 内部辅助方法 ──

func (s *roomService) recordLog(ctx context.Context, room *model.FlowerRoom, logType, title, description, userID string) {
	entry := &model.RoomLog{
		RoomID:      room.RoomID,
		CycleID:     room.CurrentCycleID,
		Type:        logType,
		Title:       title,
		Description: description,
		Data:        model.JSONMap{},
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if room.IsActive {
		day := room.CurrentDay(time.Now())
		entry.DayOfCycle = &day
	}
	if err := s.repo.RoomLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入房间日志失败", zap.String("room_id", room.RoomID), zap.Error(err))
	}
}

func toRoomResponse(room *model.FlowerRoom, now time.Time) *dto.RoomResponse {
	return &dto.RoomResponse{
		FlowerRoom:    *room,
		CurrentDay:    room.CurrentDay(now),
		Progress:      room.Progress(now),
		DaysRemaining: room.DaysRemaining(now),
		TotalWatts:    room.Lighting.TotalWatts(),
	}
}
