package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestTrimService() (TrimService, *mockCycleArchiveRepo, *mockTrimLogRepo) {
	archiveRepo := newMockCycleArchiveRepo()
	trimRepo := newMockTrimLogRepo()
	repo := &repository.Repository{
		Room:    newMockRoomRepo(),
		Session: newMockHarvestSessionRepo(),
		Archive: archiveRepo,
		Trim:    trimRepo,
		Strain:  newMockStrainRepo(),
		Veg:     newMockVegBatchRepo(),
		Clone:   newMockCloneCutRepo(),
		Task:    newMockRoomTaskRepo(),
		RoomLog: newMockRoomLogRepo(),
		Audit:   newMockAuditLogRepo(),
	}
	logger := zap.NewNop()
	audit := NewAuditService(repo, logger)
	svc := NewTrimService(repo, audit, nil, logger)
	return svc, archiveRepo, trimRepo
}

// ── AddLog 测试 ──

func TestTrimService_AddLog_SnapshotsAndMovesToInProgress(t *testing.T) {
	svc, archiveRepo, trimRepo := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")

	log, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001")
	if err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}
	if log.RoomName != "Room 1" || log.Strain != "Gelato" {
		t.Errorf("日志应快照归档房间与品种，实际 room=%s strain=%s", log.RoomName, log.Strain)
	}
	if len(trimRepo.logs) != 1 {
		t.Errorf("期望持久化1条日志，实际=%d", len(trimRepo.logs))
	}

	archive := archiveRepo.archives["arch-1"]
	if archive.TrimStatus != model.TrimStatusInProgress {
		t.Errorf("首条日志后状态应为 in_progress，实际=%s", archive.TrimStatus)
	}
	if archive.Metrics.TotalTrimWeight != 250 {
		t.Errorf("期望归档干重=250，实际=%v", archive.Metrics.TotalTrimWeight)
	}
	// 5000 湿重 + 250 干重 → 5%
	if archive.Metrics.DryToWetPercent == nil || *archive.Metrics.DryToWetPercent != 5 {
		t.Errorf("期望干湿比=5，实际=%v", archive.Metrics.DryToWetPercent)
	}
}

func TestTrimService_AddLog_CompletedArchiveBlocked(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	a := seedArchive(archiveRepo, "arch-1")
	a.TrimStatus = model.TrimStatusCompleted

	_, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001")
	if !errors.Is(err, ErrTrimCompleted) {
		t.Errorf("期望 ErrTrimCompleted，实际: %v", err)
	}
}

func TestTrimService_AddLog_InvalidDate(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")

	bad := "15/08/2026"
	_, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250, Date: &bad}, "user-001")
	if !errors.Is(err, ErrTrimDateInvalid) {
		t.Errorf("期望 ErrTrimDateInvalid，实际: %v", err)
	}
}

// ── DeleteLog / RestoreLog 测试 ──

func TestTrimService_DeleteLog_RevertsToPendingAtZero(t *testing.T) {
	svc, archiveRepo, trimRepo := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	log, _ := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001")

	if err := svc.DeleteLog(context.Background(), log.TrimLogID, "user-001"); err != nil {
		t.Fatalf("DeleteLog 应成功: %v", err)
	}
	if !trimRepo.logs[log.TrimLogID].DeletedAt.Valid {
		t.Error("日志应为软删除状态")
	}

	archive := archiveRepo.archives["arch-1"]
	if archive.TrimStatus != model.TrimStatusPending {
		t.Errorf("干重归零后状态应回到 pending，实际=%s", archive.TrimStatus)
	}
	if archive.Metrics.TotalTrimWeight != 0 {
		t.Errorf("期望干重=0，实际=%v", archive.Metrics.TotalTrimWeight)
	}
}

func TestTrimService_RestoreLog_Success(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	log, _ := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001")
	if err := svc.DeleteLog(context.Background(), log.TrimLogID, "user-001"); err != nil {
		t.Fatalf("DeleteLog 应成功: %v", err)
	}

	restored, err := svc.RestoreLog(context.Background(), log.TrimLogID, "user-001")
	if err != nil {
		t.Fatalf("RestoreLog 应成功: %v", err)
	}
	if restored.DeletedAt.Valid {
		t.Error("恢复后软删除标记应被清除")
	}

	archive := archiveRepo.archives["arch-1"]
	if archive.Metrics.TotalTrimWeight != 250 {
		t.Errorf("恢复后干重应重算=250，实际=%v", archive.Metrics.TotalTrimWeight)
	}
	if archive.TrimStatus != model.TrimStatusInProgress {
		t.Errorf("恢复后状态应回到 in_progress，实际=%s", archive.TrimStatus)
	}
}

func TestTrimService_RestoreLog_NotDeleted(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	log, _ := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001")

	_, err := svc.RestoreLog(context.Background(), log.TrimLogID, "user-001")
	if !errors.Is(err, ErrTrimLogNotDeleted) {
		t.Errorf("期望 ErrTrimLogNotDeleted，实际: %v", err)
	}
}

// ── CompleteTrim 测试 ──

func TestTrimService_CompleteTrim_Terminal(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 250}, "user-001"); err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}

	completed, err := svc.CompleteTrim(context.Background(), "arch-1", "user-001")
	if err != nil {
		t.Fatalf("CompleteTrim 应成功: %v", err)
	}
	if completed.TrimStatus != model.TrimStatusCompleted || completed.TrimCompletedAt == nil {
		t.Errorf("期望状态=completed 且记录完成时间，实际 status=%s at=%v", completed.TrimStatus, completed.TrimCompletedAt)
	}

	if _, err := svc.CompleteTrim(context.Background(), "arch-1", "user-001"); !errors.Is(err, ErrTrimAlreadyCompleted) {
		t.Errorf("重复完成期望 ErrTrimAlreadyCompleted，实际: %v", err)
	}
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 100}, "user-001"); !errors.Is(err, ErrTrimCompleted) {
		t.Errorf("完成后追加日志期望 ErrTrimCompleted，实际: %v", err)
	}
}

// ── UpdateTrimArchive 测试 ──

func TestTrimService_UpdateTrimArchive_ComputesGramsPerWatt(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 1000}, "user-001"); err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}

	lamps := 10
	watts := 100
	sqm := 50.0
	updated, err := svc.UpdateTrimArchive(context.Background(), "arch-1", &dto.UpdateTrimArchiveRequest{
		LampCount: &lamps, WattsPerLamp: &watts, SquareMeters: &sqm,
	}, "user-001")
	if err != nil {
		t.Fatalf("UpdateTrimArchive 应成功: %v", err)
	}
	// 1000克 / (10灯 × 100瓦) = 1 克/瓦
	if updated.Metrics.GramsPerWatt == nil || *updated.Metrics.GramsPerWatt != 1 {
		t.Errorf("期望克/瓦=1，实际=%v", updated.Metrics.GramsPerWatt)
	}
	// 1000克 / 50平米 = 20 克/平米
	if updated.Metrics.GramsPerSquareMeter == nil || *updated.Metrics.GramsPerSquareMeter != 20 {
		t.Errorf("期望克/平米=20，实际=%v", updated.Metrics.GramsPerSquareMeter)
	}
}

func TestTrimService_UpdateTrimArchive_PopcornAndQuality(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	a := seedArchive(archiveRepo, "arch-1")
	a.ActualDays = 50
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 1000}, "user-001"); err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}

	popcorn := 120.0
	quality := "A"
	updated, err := svc.UpdateTrimArchive(context.Background(), "arch-1", &dto.UpdateTrimArchiveRequest{
		PopcornWeight: &popcorn, Quality: &quality,
	}, "user-001")
	if err != nil {
		t.Fatalf("UpdateTrimArchive 应成功: %v", err)
	}
	if updated.HarvestData.PopcornWeight != 120 {
		t.Errorf("期望爆米花花重=120，实际=%v", updated.HarvestData.PopcornWeight)
	}
	if updated.HarvestData.Quality != "A" {
		t.Errorf("期望品质评级=A，实际=%s", updated.HarvestData.Quality)
	}
	if updated.HarvestData.DryWeight != 1000 {
		t.Errorf("干重应随日志重算=1000，实际=%v", updated.HarvestData.DryWeight)
	}
	// 1000克 / 10株 = 100 克/株；1000克 / 50天 = 20 克/天
	if updated.Metrics.GramsPerPlant == nil || *updated.Metrics.GramsPerPlant != 100 {
		t.Errorf("期望克/株=100，实际=%v", updated.Metrics.GramsPerPlant)
	}
	if updated.Metrics.GramsPerDay == nil || *updated.Metrics.GramsPerDay != 20 {
		t.Errorf("期望克/天=20，实际=%v", updated.Metrics.GramsPerDay)
	}
}

// ── ListActive / DailyStats 测试 ──

func TestTrimService_ListActive_SkipsCompleted(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	done := seedArchive(archiveRepo, "arch-2")
	done.TrimStatus = model.TrimStatusCompleted

	active, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive 应成功: %v", err)
	}
	if len(active) != 1 || active[0].ArchiveID != "arch-1" {
		t.Errorf("修剪工作台应只含未完成归档，实际=%v", active)
	}
}

func TestTrimService_DailyStats_GroupsByDate(t *testing.T) {
	svc, archiveRepo, _ := setupTestTrimService()
	seedArchive(archiveRepo, "arch-1")
	other := seedArchive(archiveRepo, "arch-2")
	other.RoomID = "room-2"

	today := time.Now().Format("2006-01-02")
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-1", Weight: 300, Date: &today}, "user-001"); err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}
	if _, err := svc.AddLog(context.Background(), &dto.CreateTrimLogRequest{ArchiveID: "arch-2", Weight: 200, Date: &today}, "user-001"); err != nil {
		t.Fatalf("AddLog 应成功: %v", err)
	}

	stats, err := svc.DailyStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("DailyStats 应成功: %v", err)
	}
	if stats.TotalWeight != 500 {
		t.Errorf("期望7日总重=500，实际=%v", stats.TotalWeight)
	}
	var day *dto.TrimDayStats
	for i := range stats.Days {
		if stats.Days[i].Date == today {
			day = &stats.Days[i]
		}
	}
	if day == nil {
		t.Fatalf("应包含今日统计，实际=%v", stats.Days)
	}
	if day.TotalWeight != 500 || day.LogsCount != 2 {
		t.Errorf("期望今日 500克/2条，实际 weight=%v logs=%d", day.TotalWeight, day.LogsCount)
	}
	if day.Rooms != 2 {
		t.Errorf("期望今日涉及2个房间，实际=%d", day.Rooms)
	}
	if len(stats.Days) != 7 {
		t.Errorf("期望补零后7天序列，实际=%d", len(stats.Days))
	}
}

func TestTrimService_DailyStats_ClampsDays(t *testing.T) {
	svc, _, _ := setupTestTrimService()

	stats, err := svc.DailyStats(context.Background(), 3)
	if err != nil {
		t.Fatalf("DailyStats 应成功: %v", err)
	}
	if len(stats.Days) != 7 {
		t.Errorf("天数下限应为7，实际=%d", len(stats.Days))
	}

	stats, err = svc.DailyStats(context.Background(), 365)
	if err != nil {
		t.Fatalf("DailyStats 应成功: %v", err)
	}
	if len(stats.Days) != 90 {
		t.Errorf("天数上限应为90，实际=%d", len(stats.Days))
	}
}
