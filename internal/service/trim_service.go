package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/pkg/metrics"
)

// ── 修剪模块业务错误 ──

var (
	ErrTrimLogNotFound      = errors.New("修剪日志不存在")
	ErrTrimLogNotDeleted    = errors.New("修剪日志未被删除，无法恢复")
	ErrTrimCompleted        = errors.New("归档修剪已完成，不可再修改")
	ErrTrimAlreadyCompleted = errors.New("归档修剪已标记完成")
	ErrTrimDateInvalid      = errors.New("修剪日期格式无效")
)

// TrimService 修剪跟踪业务接口
type TrimService interface {
	ListActive(ctx context.Context) ([]dto.ActiveTrimArchive, error)
	ListByArchive(ctx context.Context, archiveID string) ([]model.TrimLog, error)
	DailyStats(ctx context.Context, days int) (*dto.TrimDailyStatsResponse, error)
	AddLog(ctx context.Context, req *dto.CreateTrimLogRequest, callerID string) (*model.TrimLog, error)
	DeleteLog(ctx context.Context, id string, callerID string) error
	RestoreLog(ctx context.Context, id string, callerID string) (*model.TrimLog, error)
	UpdateTrimArchive(ctx context.Context, archiveID string, req *dto.UpdateTrimArchiveRequest, callerID string) (*model.CycleArchive, error)
	CompleteTrim(ctx context.Context, archiveID string, callerID string) (*model.CycleArchive, error)
}

type trimService struct {
	repo    *repository.Repository
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTrimService 创建 TrimService 实例
func NewTrimService(repo *repository.Repository, audit AuditService, m *metrics.Metrics, logger *zap.Logger) TrimService {
	return &trimService{repo: repo, audit: audit, metrics: m, logger: logger}
}

// ────────────────────── ListActive ──────────────────────

// ListActive 修剪工作台列表：所有未完成修剪的归档
func (s *trimService) ListActive(ctx context.Context) ([]dto.ActiveTrimArchive, error) {
	archives, err := s.repo.Archive.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出归档失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ActiveTrimArchive, 0)
	for i := range archives {
		a := &archives[i]
		if a.TrimStatus == model.TrimStatusCompleted {
			continue
		}
		result = append(result, dto.ActiveTrimArchive{
			ArchiveID:       a.ArchiveID,
			RoomName:        a.RoomName,
			CycleName:       a.CycleName,
			Strain:          a.Strain,
			HarvestDate:     a.HarvestDate.Format("2006-01-02"),
			TrimStatus:      a.TrimStatus,
			TotalWetWeight:  a.Metrics.TotalWetWeight,
			TotalTrimWeight: a.Metrics.TotalTrimWeight,
			DryToWetPercent: a.Metrics.DryToWetPercent,
		})
	}
	return result, nil
}

// ────────────────────── ListByArchive ──────────────────────

func (s *trimService) ListByArchive(ctx context.Context, archiveID string) ([]model.TrimLog, error) {
	if _, err := s.getArchive(ctx, archiveID); err != nil {
		return nil, err
	}
	logs, err := s.repo.Trim.ListByArchive(ctx, archiveID)
	if err != nil {
		s.logger.Error("列出修剪日志失败", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}
	return logs, nil
}

// ────────────────────── DailyStats ──────────────────────

// DailyStats 近 N 天逐日修剪量，天数夹在 7~90，无记录的日期补零
func (s *trimService) DailyStats(ctx context.Context, days int) (*dto.TrimDailyStatsResponse, error) {
	if days <= 0 {
		days = 30
	}
	if days < 7 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	now := time.Now()
	from := now.AddDate(0, 0, -(days - 1))

	logs, err := s.repo.Trim.ListBetween(ctx, from, now.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("查询修剪日志失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.TrimDailyStatsResponse{Days: make([]dto.TrimDayStats, days)}
	byDay := make(map[string]*dto.TrimDayStats, days)
	roomsByDay := make(map[string]map[string]bool, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		resp.Days[i] = dto.TrimDayStats{Date: day}
		byDay[day] = &resp.Days[i]
		roomsByDay[day] = make(map[string]bool)
	}

	for _, log := range logs {
		st, ok := byDay[log.Date.Format("2006-01-02")]
		if !ok {
			continue // 日期落在窗口外的记录不计入
		}
		st.TotalWeight += log.Weight
		st.LogsCount++
		roomsByDay[st.Date][log.RoomID] = true
		resp.TotalWeight += log.Weight
	}
	for i := range resp.Days {
		resp.Days[i].Rooms = len(roomsByDay[resp.Days[i].Date])
	}
	return resp, nil
}

// ────────────────────── AddLog ──────────────────────

func (s *trimService) AddLog(ctx context.Context, req *dto.CreateTrimLogRequest, callerID string) (*model.TrimLog, error) {
	archive, err := s.getArchive(ctx, req.ArchiveID)
	if err != nil {
		return nil, err
	}
	if archive.TrimStatus == model.TrimStatusCompleted {
		return nil, ErrTrimCompleted
	}

	date := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrTrimDateInvalid
		}
		date = parsed
	}

	log := &model.TrimLog{
		ArchiveID: archive.ArchiveID,
		RoomID:    archive.RoomID,
		RoomName:  archive.RoomName,
		Strain:    archive.Strain,
		Weight:    req.Weight,
		Date:      date,
	}
	if callerID != "" {
		log.CreatedBy = &callerID
	}

	if err := s.repo.Trim.Create(ctx, log); err != nil {
		s.logger.Error("创建修剪日志失败", zap.String("archive_id", req.ArchiveID), zap.Error(err))
		return nil, err
	}

	if err := s.recomputeArchive(ctx, archive); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TrimLogsCreated.Inc()
	}
	return log, nil
}

// ────────────────────── DeleteLog / RestoreLog ──────────────────────

func (s *trimService) DeleteLog(ctx context.Context, id string, callerID string) error {
	log, err := s.repo.Trim.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrimLogNotFound
		}
		s.logger.Error("查询修剪日志失败", zap.String("id", id), zap.Error(err))
		return err
	}

	archive, err := s.getArchive(ctx, log.ArchiveID)
	if err != nil {
		return err
	}
	if archive.TrimStatus == model.TrimStatusCompleted {
		return ErrTrimCompleted
	}

	if err := s.repo.Trim.SoftDelete(ctx, id, callerID); err != nil {
		s.logger.Error("删除修剪日志失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.recomputeArchive(ctx, archive); err != nil {
		return err
	}

	s.audit.Record(ctx, callerID, "trim.delete_log", "trim_log", id, map[string]interface{}{
		"archive_id": log.ArchiveID,
		"weight":     log.Weight,
	})
	return nil
}

func (s *trimService) RestoreLog(ctx context.Context, id string, callerID string) (*model.TrimLog, error) {
	log, err := s.repo.Trim.GetByIDUnscoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrimLogNotFound
		}
		s.logger.Error("查询修剪日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !log.DeletedAt.Valid {
		return nil, ErrTrimLogNotDeleted
	}

	archive, err := s.getArchive(ctx, log.ArchiveID)
	if err != nil {
		return nil, err
	}
	if archive.TrimStatus == model.TrimStatusCompleted {
		return nil, ErrTrimCompleted
	}

	if err := s.repo.Trim.Restore(ctx, id); err != nil {
		s.logger.Error("恢复修剪日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	log.DeletedAt = gorm.DeletedAt{}
	log.DeletedBy = nil

	if err := s.recomputeArchive(ctx, archive); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, callerID, "trim.restore_log", "trim_log", id, nil)
	return log, nil
}

// ────────────────────── UpdateTrimArchive ──────────────────────

// UpdateTrimArchive 补录灯光与面积参数并重算克/瓦、克/平米，
// 同时可录入爆米花花重量与品质评级
func (s *trimService) UpdateTrimArchive(ctx context.Context, archiveID string, req *dto.UpdateTrimArchiveRequest, callerID string) (*model.CycleArchive, error) {
	archive, err := s.getArchive(ctx, archiveID)
	if err != nil {
		return nil, err
	}

	if req.LampCount != nil {
		archive.Lighting.LampCount = *req.LampCount
	}
	if req.WattsPerLamp != nil {
		archive.Lighting.WattsPerLamp = *req.WattsPerLamp
	}
	if req.SquareMeters != nil {
		archive.SquareMeters = req.SquareMeters
	}
	if req.PopcornWeight != nil {
		archive.HarvestData.PopcornWeight = *req.PopcornWeight
	}
	if req.Quality != nil {
		archive.HarvestData.Quality = *req.Quality
	}

	if err := s.recomputeArchive(ctx, archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// ────────────────────── CompleteTrim ──────────────────────

func (s *trimService) CompleteTrim(ctx context.Context, archiveID string, callerID string) (*model.CycleArchive, error) {
	archive, err := s.getArchive(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive.TrimStatus == model.TrimStatusCompleted {
		return nil, ErrTrimAlreadyCompleted
	}

	now := time.Now()
	archive.TrimStatus = model.TrimStatusCompleted
	archive.TrimCompletedAt = &now

	if err := s.repo.Archive.Update(ctx, archive); err != nil {
		s.logger.Error("标记修剪完成失败", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, callerID, "trim.complete", "cycle_archive", archiveID, map[string]interface{}{
		"total_trim_weight": archive.Metrics.TotalTrimWeight,
	})
	return archive, nil
}

// ── 内部辅助方法 ──

func (s *trimService) getArchive(ctx context.Context, id string) (*model.CycleArchive, error) {
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

// recomputeArchive 从有效日志重算修剪合计与效率指标，并推进修剪状态：
// 有日志时 pending → in_progress，日志清零时回退 in_progress → pending。
func (s *trimService) recomputeArchive(ctx context.Context, archive *model.CycleArchive) error {
	total, err := s.repo.Trim.SumByArchive(ctx, archive.ArchiveID)
	if err != nil {
		s.logger.Error("汇总修剪重量失败", zap.String("archive_id", archive.ArchiveID), zap.Error(err))
		return err
	}

	recomputeMetrics(archive, total)

	switch {
	case total > 0 && archive.TrimStatus == model.TrimStatusPending:
		archive.TrimStatus = model.TrimStatusInProgress
	case total == 0 && archive.TrimStatus == model.TrimStatusInProgress:
		archive.TrimStatus = model.TrimStatusPending
	}

	if err := s.repo.Archive.Update(ctx, archive); err != nil {
		s.logger.Error("更新归档指标失败", zap.String("archive_id", archive.ArchiveID), zap.Error(err))
		return err
	}
	return nil
}
