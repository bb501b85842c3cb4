package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/config"
	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/pkg/metrics"
)

// ── 收获会话模块业务错误 ──

var (
	ErrSessionNotFound       = errors.New("收获会话不存在")
	ErrSessionCompleted      = errors.New("收获会话已完成")
	ErrPlantNotFound         = errors.New("称重记录不存在")
	ErrPlantAlreadyRecorded  = errors.New("该株已录入称重")
	ErrPlantNumberOutOfRange = errors.New("株号超出房间株数范围")
	ErrPlantUndoExpired      = errors.New("撤销窗口已过，请改用错误备注")
	ErrPlantUndoForbidden    = errors.New("只能撤销自己录入的称重记录")
	ErrCrewRoleTaken         = errors.New("称重员角色已被占用")
	ErrNotCrewMember         = errors.New("不是该会话的团队成员")
)

// HarvestService 收获会话业务接口
type HarvestService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*model.HarvestSession, error)
	GetByID(ctx context.Context, id string) (*model.HarvestSession, error)
	GetActiveByRoom(ctx context.Context, roomID string) (*model.HarvestSession, error)
	List(ctx context.Context, status string) ([]model.HarvestSession, error)
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*model.HarvestSession, error)
	Complete(ctx context.Context, id string, req *dto.CompleteSessionRequest, callerID string) (*model.HarvestSession, *model.CycleArchive, error)

	AddPlant(ctx context.Context, sessionID string, req *dto.AddPlantRequest, callerID string) (*model.HarvestPlant, error)
	RemovePlant(ctx context.Context, sessionID, plantID string, callerID string) error
	SetPlantErrorNote(ctx context.Context, sessionID, plantID, note string, callerID string) (*model.HarvestPlant, error)

	JoinCrew(ctx context.Context, sessionID, role, callerID, callerName string) (*model.HarvestSession, error)
	ForceJoinCrew(ctx context.Context, sessionID, role, callerID, callerName string) (*model.HarvestSession, error)
	LeaveCrew(ctx context.Context, sessionID, callerID string) (*model.HarvestSession, error)
	CrewStats(ctx context.Context, sessionID string) (*dto.CrewStatsResponse, error)
}

type harvestService struct {
	repo    *repository.Repository
	farm    *config.FarmConfig
	archive ArchiveService
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHarvestService 创建 HarvestService 实例
func NewHarvestService(repo *repository.Repository, farm *config.FarmConfig, archive ArchiveService, audit AuditService, m *metrics.Metrics, logger *zap.Logger) HarvestService {
	return &harvestService{repo: repo, farm: farm, archive: archive, audit: audit, metrics: m, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 为房间创建收获会话。房间已有进行中会话时返回该会话（幂等，
// 多名工人同时点击开始不会产生重复会话）。
func (s *harvestService) Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*model.HarvestSession, error) {
	room, err := s.repo.Room.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", req.RoomID), zap.Error(err))
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomCycleNotActive
	}

	existing, err := s.repo.Session.GetActiveByRoom(ctx, req.RoomID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进行中会话失败", zap.String("room_id", req.RoomID), zap.Error(err))
		return nil, err
	}

	session := &model.HarvestSession{
		RoomID:           room.RoomID,
		RoomNumber:       room.RoomNumber,
		RoomName:         room.Name,
		CycleName:        room.CycleName,
		Strain:           room.Strain,
		PlantsCount:      room.PlantsCount,
		Status:           model.SessionStatusInProgress,
		Crew:             model.CrewMembers{},
		StartedAt:        time.Now(),
		DistanceToScale:  req.DistanceToScale,
		PotWeight:        req.PotWeight,
		BranchesPerPlant: req.BranchesPerPlant,
		PotsPerTrip:      req.PotsPerTrip,
		PlantsPerTrip:    req.PlantsPerTrip,
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建收获会话失败", zap.String("room_id", req.RoomID), zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.HarvestSessionsStarted.Inc()
	}
	s.audit.Record(ctx, callerID, "harvest.start_session", "harvest_session", session.SessionID, map[string]interface{}{
		"room_id": room.RoomID,
	})

	return session, nil
}

// ────────────────────── GetByID / GetActiveByRoom / List ──────────────────────

func (s *harvestService) GetByID(ctx context.Context, id string) (*model.HarvestSession, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询会话失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *harvestService) GetActiveByRoom(ctx context.Context, roomID string) (*model.HarvestSession, error) {
	session, err := s.repo.Session.GetActiveByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询进行中会话失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *harvestService) List(ctx context.Context, status string) ([]model.HarvestSession, error) {
	sessions, err := s.repo.Session.List(ctx, status)
	if err != nil {
		s.logger.Error("列出会话失败", zap.Error(err))
		return nil, err
	}
	return sessions, nil
}

// ────────────────────── Update ──────────────────────

func (s *harvestService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*model.HarvestSession, error) {
	session, err := s.getInProgress(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DistanceToScale != nil {
		session.DistanceToScale = req.DistanceToScale
	}
	if req.PotWeight != nil {
		session.PotWeight = req.PotWeight
	}
	if req.BranchesPerPlant != nil {
		session.BranchesPerPlant = req.BranchesPerPlant
	}
	if req.PotsPerTrip != nil {
		session.PotsPerTrip = req.PotsPerTrip
	}
	if req.PlantsPerTrip != nil {
		session.PlantsPerTrip = req.PlantsPerTrip
	}

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("更新会话失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// ────────────────────── Complete ──────────────────────

// Complete 完成称重会话并触发周期归档
func (s *harvestService) Complete(ctx context.Context, id string, req *dto.CompleteSessionRequest, callerID string) (*model.HarvestSession, *model.CycleArchive, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, nil, ErrSessionCompleted
	}

	now := time.Now()
	session.Status = model.SessionStatusCompleted
	session.CompletedAt = &now

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("完成会话失败", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}

	// 房间周期已被提前重置时会话照常完结，只是没有归档可生成
	archive, err := s.archive.ArchiveCycle(ctx, session.RoomID, session, 0, req.Notes, callerID)
	if err != nil {
		if errors.Is(err, ErrRoomCycleNotActive) {
			s.logger.Warn("房间周期已结束，跳过归档", zap.String("session_id", id))
			archive = nil
		} else {
			s.logger.Error("归档周期失败", zap.String("session_id", id), zap.Error(err))
			return nil, nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.HarvestSessionsCompleted.Inc()
	}
	s.audit.Record(ctx, callerID, "harvest.complete_session", "harvest_session", id, map[string]interface{}{
		"total_wet_weight": session.TotalWetWeight(),
		"plants_recorded":  len(session.Plants),
	})

	return session, archive, nil
}

// ────────────────────── AddPlant ──────────────────────

func (s *harvestService) AddPlant(ctx context.Context, sessionID string, req *dto.AddPlantRequest, callerID string) (*model.HarvestPlant, error) {
	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PlantsCount > 0 && req.PlantNumber > session.PlantsCount {
		return nil, ErrPlantNumberOutOfRange
	}

	exists, err := s.repo.Session.PlantExists(ctx, sessionID, req.PlantNumber)
	if err != nil {
		s.logger.Error("检查称重记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrPlantAlreadyRecorded
	}

	strain := req.Strain
	if strain == "" {
		strain = s.resolveStrain(ctx, session, req.PlantNumber)
	}

	plant := &model.HarvestPlant{
		SessionID:   sessionID,
		PlantNumber: req.PlantNumber,
		Strain:      strain,
		WetWeight:   req.WetWeight,
		RecordedAt:  time.Now(),
	}
	if callerID != "" {
		plant.RecordedBy = &callerID
	}

	if err := s.repo.Session.AddPlant(ctx, plant); err != nil {
		s.logger.Error("录入称重失败",
			zap.String("session_id", sessionID),
			zap.Int("plant_number", req.PlantNumber),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PlantsRecorded.Inc()
	}
	return plant, nil
}

// ────────────────────── RemovePlant ──────────────────────

// RemovePlant 撤销称重记录。仅录入者本人可在撤销窗口内删除，
// 窗口过后只能通过错误备注标记。
func (s *harvestService) RemovePlant(ctx context.Context, sessionID, plantID string, callerID string) error {
	if _, err := s.getInProgress(ctx, sessionID); err != nil {
		return err
	}

	plant, err := s.repo.Session.GetPlant(ctx, plantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlantNotFound
		}
		s.logger.Error("查询称重记录失败", zap.String("plant_id", plantID), zap.Error(err))
		return err
	}
	if plant.SessionID != sessionID {
		return ErrPlantNotFound
	}
	if plant.RecordedBy == nil || *plant.RecordedBy != callerID {
		return ErrPlantUndoForbidden
	}

	window := time.Duration(s.farm.PlantUndoWindowSec) * time.Second
	if time.Since(plant.RecordedAt) > window {
		return ErrPlantUndoExpired
	}

	if err := s.repo.Session.DeletePlant(ctx, plantID); err != nil {
		s.logger.Error("撤销称重失败", zap.String("plant_id", plantID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── SetPlantErrorNote ──────────────────────

func (s *harvestService) SetPlantErrorNote(ctx context.Context, sessionID, plantID, note string, callerID string) (*model.HarvestPlant, error) {
	if _, err := s.getInProgress(ctx, sessionID); err != nil {
		return nil, err
	}

	plant, err := s.repo.Session.GetPlant(ctx, plantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		s.logger.Error("查询称重记录失败", zap.String("plant_id", plantID), zap.Error(err))
		return nil, err
	}
	if plant.SessionID != sessionID {
		return nil, ErrPlantNotFound
	}

	plant.ErrorNote = note
	if err := s.repo.Session.UpdatePlant(ctx, plant); err != nil {
		s.logger.Error("更新错误备注失败", zap.String("plant_id", plantID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, callerID, "harvest.plant_error_note", "harvest_plant", plantID, map[string]interface{}{
		"session_id":   sessionID,
		"plant_number": plant.PlantNumber,
	})
	return plant, nil
}

// ────────────────────── JoinCrew / LeaveCrew ──────────────────────

func (s *harvestService) JoinCrew(ctx context.Context, sessionID, role, callerID, callerName string) (*model.HarvestSession, error) {
	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := session.Crew.FindByUser(callerID)

	// 称重员全场唯一
	if role == model.CrewRoleWeighing {
		for i, m := range session.Crew {
			if m.Role == model.CrewRoleWeighing && i != idx {
				return nil, ErrCrewRoleTaken
			}
		}
	}

	if idx >= 0 {
		session.Crew[idx].Role = role
	} else {
		session.Crew = append(session.Crew, model.CrewMember{
			UserID:   callerID,
			Name:     callerName,
			Role:     role,
			JoinedAt: time.Now(),
		})
	}

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("加入团队失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// ForceJoinCrew 抢占式加入：目标角色为称重员时，现任称重员被降级为搬运员
func (s *harvestService) ForceJoinCrew(ctx context.Context, sessionID, role, callerID, callerName string) (*model.HarvestSession, error) {
	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := session.Crew.FindByUser(callerID)

	if role == model.CrewRoleWeighing {
		for i := range session.Crew {
			if session.Crew[i].Role == model.CrewRoleWeighing && i != idx {
				session.Crew[i].Role = model.CrewRoleCarrying
			}
		}
	}

	if idx >= 0 {
		session.Crew[idx].Role = role
	} else {
		session.Crew = append(session.Crew, model.CrewMember{
			UserID:   callerID,
			Name:     callerName,
			Role:     role,
			JoinedAt: time.Now(),
		})
	}

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("抢占加入团队失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *harvestService) LeaveCrew(ctx context.Context, sessionID, callerID string) (*model.HarvestSession, error) {
	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := session.Crew.FindByUser(callerID)
	if idx < 0 {
		return nil, ErrNotCrewMember
	}
	session.Crew = append(session.Crew[:idx], session.Crew[idx+1:]...)

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("退出团队失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// ────────────────────── CrewStats ──────────────────────

// CrewStats 团队作业效率统计（信息图数据）
func (s *harvestService) CrewStats(ctx context.Context, sessionID string) (*dto.CrewStatsResponse, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	if session.CompletedAt != nil {
		end = *session.CompletedAt
	}
	duration := end.Sub(session.StartedAt).Minutes()

	resp := &dto.CrewStatsResponse{
		SessionID:       session.SessionID,
		PlantsRecorded:  len(session.Plants),
		TotalWetWeight:  session.TotalWetWeight(),
		DurationMinutes: duration,
		CrewSize:        len(session.Crew),
	}
	if resp.PlantsRecorded > 0 {
		resp.AvgWeightPerPlant = resp.TotalWetWeight / float64(resp.PlantsRecorded)
	}
	if duration > 0 {
		resp.PlantsPerHour = float64(resp.PlantsRecorded) / duration * 60
	}
	if session.PlantsPerTrip != nil && *session.PlantsPerTrip > 0 {
		resp.EstimatedTrips = (resp.PlantsRecorded + *session.PlantsPerTrip - 1) / *session.PlantsPerTrip
		if session.DistanceToScale != nil {
			// 往返一趟按两倍距离计
			resp.DistanceWalked = float64(resp.EstimatedTrips) * *session.DistanceToScale * 2
		}
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *harvestService) getInProgress(ctx context.Context, id string) (*model.HarvestSession, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrSessionCompleted
	}
	return session, nil
}

// resolveStrain 按房间品种分配的连续株号区间推断单株品种。
// 例：A 10 株 + B 5 株，则 1-10 号为 A，11-15 号为 B。
func (s *harvestService) resolveStrain(ctx context.Context, session *model.HarvestSession, plantNumber int) string {
	room, err := s.repo.Room.GetByID(ctx, session.RoomID)
	if err != nil {
		return session.Strain
	}

	upper := 0
	for _, alloc := range room.FlowerStrains {
		upper += alloc.PlantsCount
		if plantNumber <= upper {
			return alloc.Name
		}
	}
	return session.Strain
}
