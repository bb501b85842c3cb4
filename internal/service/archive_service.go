package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/pkg/metrics"
)

// ── 周期归档模块业务错误 ──

var (
	ErrArchiveNotFound   = errors.New("归档不存在")
	ErrArchiveNotDeleted = errors.New("归档未被删除，无法恢复")
)

// ArchiveService 周期归档业务接口
type ArchiveService interface {
	List(ctx context.Context, filter repository.ArchiveFilter) ([]model.CycleArchive, error)
	GetByID(ctx context.Context, id string) (*model.CycleArchive, error)
	ListDeleted(ctx context.Context) ([]model.CycleArchive, error)
	Stats(ctx context.Context) (*dto.ArchiveStatsResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateArchiveRequest, callerID string) (*model.CycleArchive, error)
	Delete(ctx context.Context, id string, callerID string) error
	Restore(ctx context.Context, id string, callerID string) (*model.CycleArchive, error)
	HarvestAndArchive(ctx context.Context, roomID string, req *dto.HarvestAndArchiveRequest, callerID string) (*model.CycleArchive, error)

	// ArchiveCycle 归档引擎：为房间当前周期生成归档快照并重置房间。
	// session 为 nil 表示跳过称重会话的手动归档；测试房不生成归档只重置。
	ArchiveCycle(ctx context.Context, roomID string, session *model.HarvestSession, totalWetWeight float64, notes string, callerID string) (*model.CycleArchive, error)
}

type archiveService struct {
	repo    *repository.Repository
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewArchiveService 创建 ArchiveService 实例
func NewArchiveService(repo *repository.Repository, audit AuditService, m *metrics.Metrics, logger *zap.Logger) ArchiveService {
	return &archiveService{repo: repo, audit: audit, metrics: m, logger: logger}
}

// ────────────────────── List / GetByID / ListDeleted ──────────────────────

func (s *archiveService) List(ctx context.Context, filter repository.ArchiveFilter) ([]model.CycleArchive, error) {
	archives, err := s.repo.Archive.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出归档失败", zap.Error(err))
		return nil, err
	}
	return archives, nil
}

func (s *archiveService) GetByID(ctx context.Context, id string) (*model.CycleArchive, error) {
	archive, err := s.repo.Archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArchiveNotFound
		}
		s.logger.Error("查询归档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return archive, nil
}

func (s *archiveService) ListDeleted(ctx context.Context) ([]model.CycleArchive, error) {
	archives, err := s.repo.Archive.ListDeleted(ctx)
	if err != nil {
		s.logger.Error("列出已删除归档失败", zap.Error(err))
		return nil, err
	}
	return archives, nil
}

// ────────────────────── Stats ──────────────────────

func (s *archiveService) Stats(ctx context.Context) (*dto.ArchiveStatsResponse, error) {
	archives, err := s.repo.Archive.ListAll(ctx)
	if err != nil {
		s.logger.Error("统计归档失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ArchiveStatsResponse{
		ByStrain: []dto.StrainStats{},
		ByMonth:  []dto.MonthStats{},
		ByRoom:   []dto.RoomStats{},
	}
	byStrain := make(map[string]*dto.StrainStats)
	plantsByStrain := make(map[string]int)
	order := make([]string, 0)
	byMonth := make(map[string]*dto.MonthStats)
	byRoom := make(map[string]*dto.RoomStats)
	roomOrder := make([]string, 0)
	ratioSum := 0.0
	ratioCount := 0

	for i := range archives {
		a := &archives[i]
		resp.TotalArchives++
		resp.TotalWetWeight += a.Metrics.TotalWetWeight
		resp.TotalTrimWeight += a.Metrics.TotalTrimWeight
		resp.TotalPlants += a.PlantsCount
		if a.Metrics.DryToWetPercent != nil {
			ratioSum += *a.Metrics.DryToWetPercent
			ratioCount++
		}

		month := a.HarvestDate.Format("2006-01")
		ms, ok := byMonth[month]
		if !ok {
			ms = &dto.MonthStats{Month: month}
			byMonth[month] = ms
		}
		ms.Archives++
		ms.TotalWetWeight += a.Metrics.TotalWetWeight
		ms.TotalTrimWeight += a.Metrics.TotalTrimWeight

		rs, ok := byRoom[a.RoomID]
		if !ok {
			rs = &dto.RoomStats{RoomID: a.RoomID, RoomName: a.RoomName}
			byRoom[a.RoomID] = rs
			roomOrder = append(roomOrder, a.RoomID)
		}
		rs.Cycles++
		rs.TotalWetWeight += a.Metrics.TotalWetWeight
		rs.TotalTrimWeight += a.Metrics.TotalTrimWeight

		// 多品种归档按 strain_data 拆分，单品种按归档主品种
		yields := a.StrainData
		if len(yields) == 0 {
			yields = model.StrainYields{{
				Name:        a.Strain,
				PlantsCount: a.PlantsCount,
				WetWeight:   a.Metrics.TotalWetWeight,
			}}
		}
		for _, y := range yields {
			key := model.NormalizeStrainName(y.Name)
			st, ok := byStrain[key]
			if !ok {
				st = &dto.StrainStats{Strain: y.Name}
				byStrain[key] = st
				order = append(order, key)
			}
			st.Cycles++
			st.TotalWetWeight += y.WetWeight
			plantsByStrain[key] += y.PlantsCount
			if plantsByStrain[key] > 0 {
				st.AvgWetPerPlant = st.TotalWetWeight / float64(plantsByStrain[key])
			}
		}
	}

	if ratioCount > 0 {
		avg := ratioSum / float64(ratioCount)
		resp.AvgDryToWet = &avg
	}
	for _, key := range order {
		resp.ByStrain = append(resp.ByStrain, *byStrain[key])
	}
	// 湿重前10名品种
	sort.SliceStable(resp.ByStrain, func(i, j int) bool {
		return resp.ByStrain[i].TotalWetWeight > resp.ByStrain[j].TotalWetWeight
	})
	if len(resp.ByStrain) > 10 {
		resp.ByStrain = resp.ByStrain[:10]
	}

	for month := range byMonth {
		resp.ByMonth = append(resp.ByMonth, *byMonth[month])
	}
	sort.Slice(resp.ByMonth, func(i, j int) bool {
		return resp.ByMonth[i].Month < resp.ByMonth[j].Month
	})
	for _, roomID := range roomOrder {
		resp.ByRoom = append(resp.ByRoom, *byRoom[roomID])
	}
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *archiveService) Update(ctx context.Context, id string, req *dto.UpdateArchiveRequest, callerID string) (*model.CycleArchive, error) {
	archive, err := s.repo.Archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArchiveNotFound
		}
		s.logger.Error("查询归档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	weightChanged := false
	if req.CycleName != nil {
		archive.CycleName = *req.CycleName
	}
	if req.Notes != nil {
		archive.Notes = *req.Notes
	}
	if req.TotalWetWeight != nil {
		archive.HarvestData.TotalWetWeight = *req.TotalWetWeight
		weightChanged = true
	}
	if len(req.StrainData) > 0 {
		yields := make(model.StrainYields, 0, len(req.StrainData))
		totalWet := 0.0
		totalPlants := 0
		for _, in := range req.StrainData {
			yields = append(yields, model.StrainYield{
				Name:        in.Name,
				PlantsCount: in.PlantsCount,
				WetWeight:   in.WetWeight,
			})
			totalWet += in.WetWeight
			totalPlants += in.PlantsCount
		}
		archive.StrainData = yields
		if req.TotalWetWeight == nil {
			archive.HarvestData.TotalWetWeight = totalWet
		}
		if totalPlants > 0 {
			archive.PlantsCount = totalPlants
		}
		weightChanged = true
	}

	if weightChanged {
		trimTotal, err := s.repo.Trim.SumByArchive(ctx, id)
		if err != nil {
			s.logger.Error("汇总修剪重量失败", zap.String("archive_id", id), zap.Error(err))
			return nil, err
		}
		recomputeMetrics(archive, trimTotal)
	}

	if err := s.repo.Archive.Update(ctx, archive); err != nil {
		s.logger.Error("更新归档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if weightChanged {
		s.audit.Record(ctx, callerID, "archive.edit_weights", "cycle_archive", id, map[string]interface{}{
			"total_wet_weight": archive.HarvestData.TotalWetWeight,
		})
	}
	return archive, nil
}

// ────────────────────── Delete / Restore ──────────────────────

func (s *archiveService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Archive.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArchiveNotFound
		}
		s.logger.Error("查询归档失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Archive.SoftDelete(ctx, id, callerID); err != nil {
		s.logger.Error("删除归档失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, callerID, "archive.delete", "cycle_archive", id, nil)
	return nil
}

func (s *archiveService) Restore(ctx context.Context, id string, callerID string) (*model.CycleArchive, error) {
	archive, err := s.repo.Archive.GetByIDUnscoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArchiveNotFound
		}
		s.logger.Error("查询归档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !archive.DeletedAt.Valid {
		return nil, ErrArchiveNotDeleted
	}

	if err := s.repo.Archive.Restore(ctx, id); err != nil {
		s.logger.Error("恢复归档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	archive.DeletedAt = gorm.DeletedAt{}
	archive.DeletedBy = nil

	s.audit.Record(ctx, callerID, "archive.restore", "cycle_archive", id, nil)
	return archive, nil
}

// ────────────────────── HarvestAndArchive ──────────────────────

// HarvestAndArchive 手动收获并归档（跳过称重会话，整周期录入总湿重）
func (s *archiveService) HarvestAndArchive(ctx context.Context, roomID string, req *dto.HarvestAndArchiveRequest, callerID string) (*model.CycleArchive, error) {
	return s.ArchiveCycle(ctx, roomID, nil, req.TotalWetWeight, req.Notes, callerID)
}

// ────────────────────── ArchiveCycle 归档引擎 ──────────────────────

func (s *archiveService) ArchiveCycle(ctx context.Context, roomID string, session *model.HarvestSession, totalWetWeight float64, notes string, callerID string) (*model.CycleArchive, error) {
	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", roomID), zap.Error(err))
		return nil, err
	}
	if !room.IsActive || room.StartDate == nil {
		return nil, ErrRoomCycleNotActive
	}

	// 测试房不留归档，只重置房间
	if room.IsTestRoom {
		if err := s.resetRoomAndCleanup(ctx, s.repo, room, callerID, ""); err != nil {
			return nil, err
		}
		s.logger.Info("测试房周期结束，跳过归档", zap.String("room_id", roomID))
		return nil, nil
	}

	// 同周期重复归档直接返回已有归档（完成会话与手动归档可能竞争），
	// 但房间仍需清场，周期数已计过不再累加
	existing, err := s.repo.Archive.GetByCycle(ctx, roomID, *room.StartDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("检查归档是否存在失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		if err := s.resetRoomAndCleanup(ctx, s.repo, room, callerID, ""); err != nil {
			return nil, err
		}
		return existing, nil
	}

	archive := s.buildArchive(ctx, room, session, totalWetWeight, notes)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Archive.Create(ctx, archive); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建归档失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}

	if err := s.resetRoomAndCleanup(ctx, txRepo, room, callerID, archive.ArchiveID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.CyclesArchived.Inc()
	}
	s.audit.Record(ctx, callerID, "cycle.archive", "cycle_archive", archive.ArchiveID, map[string]interface{}{
		"room_id":          roomID,
		"cycle_name":       archive.CycleName,
		"total_wet_weight": archive.HarvestData.TotalWetWeight,
	})
	s.logger.Info("周期归档完成",
		zap.String("room_id", roomID),
		zap.String("archive_id", archive.ArchiveID),
		zap.Float64("total_wet_weight", archive.HarvestData.TotalWetWeight),
	)

	return archive, nil
}

// ── 内部辅助方法 ──

// buildArchive 汇总房间当前周期的全部快照数据
func (s *archiveService) buildArchive(ctx context.Context, room *model.FlowerRoom, session *model.HarvestSession, totalWetWeight float64, notes string) *model.CycleArchive {
	now := time.Now()
	actualDays := room.CurrentDay(now)

	archive := &model.CycleArchive{
		RoomID:        room.RoomID,
		RoomNumber:    room.RoomNumber,
		RoomName:      room.Name,
		SquareMeters:  room.SquareMeters,
		Lighting:      room.Lighting,
		CycleName:     room.CycleName,
		Strain:        room.Strain,
		Strains:       room.FlowerStrains.Names(),
		PlantsCount:   room.PlantsCount,
		StartDate:     *room.StartDate,
		HarvestDate:   now,
		FloweringDays: room.FloweringDays,
		ActualDays:    actualDays,
		Environment:   room.Environment,
		Notes:         notes,
		TrimStatus:    model.TrimStatusPending,
	}

	if session != nil {
		archive.StrainData = session.StrainBreakdown()
		archive.HarvestData = model.HarvestData{
			TotalWetWeight:  session.TotalWetWeight(),
			PlantsHarvested: len(session.Plants),
			SessionID:       session.SessionID,
		}
		archive.CrewData = session.Crew
		archive.HarvestMap = s.buildHarvestMap(room, session)
	} else {
		// 手动归档：总湿重按品种株数比例拆分
		archive.HarvestData = model.HarvestData{
			TotalWetWeight:  totalWetWeight,
			PlantsHarvested: room.PlantsCount,
		}
		if total := room.FlowerStrains.TotalPlants(); total > 0 {
			yields := make(model.StrainYields, 0, len(room.FlowerStrains))
			for _, alloc := range room.FlowerStrains {
				yields = append(yields, model.StrainYield{
					Name:        alloc.Name,
					PlantsCount: alloc.PlantsCount,
					WetWeight:   totalWetWeight * float64(alloc.PlantsCount) / float64(total),
				})
			}
			archive.StrainData = yields
		}
	}
	if archive.HarvestData.PlantsHarvested > 0 {
		archive.HarvestData.AvgWeightPerPlant =
			archive.HarvestData.TotalWetWeight / float64(archive.HarvestData.PlantsHarvested)
	}

	recomputeMetrics(archive, 0)

	// 周期溯源：育苗批次与克隆剪切来源
	if room.CurrentCycleID != nil {
		if batch, err := s.repo.Veg.GetLatestByFlowerRoom(ctx, room.RoomID); err == nil {
			archive.VegData = model.VegDataField{VegSnapshot: &model.VegSnapshot{
				TransplantedToVegAt: batch.TransplantedToVegAt,
				VegDays:             batch.VegDays(now),
				Strains:             batch.Strains,
				Quantity:            batch.SentToFlowerCount,
			}}
			archive.CloneData = model.CloneDataField{CloneSnapshot: &model.CloneSnapshot{
				CutDate:         batch.CutDate,
				Strains:         batch.Strains,
				Quantity:        batch.Quantity,
				InitialQuantity: batch.InitialQuantity,
			}}
		}

		if tasks, err := s.repo.Task.ListCompletedByCycle(ctx, room.RoomID, *room.CurrentCycleID); err == nil {
			snapshots := make(model.TaskSnapshots, 0, len(tasks))
			for _, t := range tasks {
				snapshots = append(snapshots, model.TaskSnapshot{
					Title:       t.Title,
					Type:        t.Type,
					DayOfCycle:  t.DayOfCycle,
					CompletedAt: t.CompletedAt,
				})
			}
			archive.CompletedTasks = snapshots
		}

		if problems, err := s.repo.RoomLog.ListByCycleAndType(ctx, room.RoomID, *room.CurrentCycleID, model.RoomLogTypeProblem); err == nil {
			issues := make(model.IssueSnapshots, 0, len(problems))
			for _, p := range problems {
				issues = append(issues, model.IssueSnapshot{
					Title:       p.Title,
					Description: p.Description,
					DayOfCycle:  p.DayOfCycle,
					CreatedAt:   p.CreatedAt,
				})
			}
			archive.Issues = issues
		}
	}

	return archive
}

// buildHarvestMap 固化收获时的房间布局与逐株称重
func (s *archiveService) buildHarvestMap(room *model.FlowerRoom, session *model.HarvestSession) model.JSONMap {
	plants := make([]map[string]interface{}, 0, len(session.Plants))
	for _, p := range session.Plants {
		plants = append(plants, map[string]interface{}{
			"plantNumber": p.PlantNumber,
			"strain":      p.Strain,
			"wetWeight":   p.WetWeight,
		})
	}
	return model.JSONMap{
		"layout": map[string]interface{}(room.RoomLayout),
		"plants": plants,
	}
}

// resetRoomAndCleanup 归档后重置房间运行字段并清空周期任务。
// archiveID 非空表示本次生成了新归档：累加周期数并写归档日志；
// 测试房与同周期重复归档传空串，只清场不计数不留日志。
func (s *archiveService) resetRoomAndCleanup(ctx context.Context, repo *repository.Repository, room *model.FlowerRoom, callerID, archiveID string) error {
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
	if archiveID != "" {
		room.TotalCycles++
	}

	if err := repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("重置房间失败", zap.String("room_id", room.RoomID), zap.Error(err))
		return err
	}

	if cycleID != nil {
		err := repo.Task.SoftDeleteByCycle(ctx, room.RoomID, *cycleID)
		if err != nil {
			s.logger.Error("清空周期任务失败", zap.String("room_id", room.RoomID), zap.Error(err))
			return err
		}
	}

	if archiveID == "" {
		return nil
	}

	entry := &model.RoomLog{
		RoomID:  room.RoomID,
		CycleID: cycleID,
		Type:    model.RoomLogTypeCycleArchive,
		Title:   "周期归档",
		Data:    model.JSONMap{"archive_id": archiveID},
	}
	if callerID != "" {
		entry.UserID = &callerID
	}
	if err := repo.RoomLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入归档日志失败", zap.String("room_id", room.RoomID), zap.Error(err))
	}
	return nil
}

// recomputeMetrics 按当前湿重与修剪干重重算效率指标。
// 干重始终等于有效修剪日志之和，并回写到收获快照。
func recomputeMetrics(archive *model.CycleArchive, trimTotal float64) {
	archive.HarvestData.DryWeight = trimTotal

	m := model.ArchiveMetrics{
		TotalWetWeight:  archive.HarvestData.TotalWetWeight,
		TotalTrimWeight: trimTotal,
	}
	if archive.HarvestData.PlantsHarvested > 0 {
		m.AvgWeightPerPlant = m.TotalWetWeight / float64(archive.HarvestData.PlantsHarvested)
	}
	if trimTotal > 0 {
		if m.TotalWetWeight > 0 {
			ratio := trimTotal / m.TotalWetWeight * 100
			m.DryToWetPercent = &ratio
		}
		if archive.PlantsCount > 0 {
			gpp := math.Round(trimTotal / float64(archive.PlantsCount))
			m.GramsPerPlant = &gpp
		}
		if archive.ActualDays > 0 {
			gpd := trimTotal / float64(archive.ActualDays)
			m.GramsPerDay = &gpd
		}
		if watts := archive.Lighting.TotalWatts(); watts > 0 {
			gpw := trimTotal / float64(watts)
			m.GramsPerWatt = &gpw
		}
		if archive.SquareMeters != nil && *archive.SquareMeters > 0 {
			gpm := trimTotal / *archive.SquareMeters
			m.GramsPerSquareMeter = &gpm
		}
	}
	archive.Metrics = m
}
