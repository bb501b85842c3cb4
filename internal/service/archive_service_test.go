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

func setupTestArchiveService() (ArchiveService, *mockRoomRepo, *mockCycleArchiveRepo, *mockTrimLogRepo, *mockRoomTaskRepo, *mockRoomLogRepo) {
	roomRepo := newMockRoomRepo()
	archiveRepo := newMockCycleArchiveRepo()
	trimRepo := newMockTrimLogRepo()
	taskRepo := newMockRoomTaskRepo()
	logRepo := newMockRoomLogRepo()
	repo := &repository.Repository{
		Room:    roomRepo,
		Session: newMockHarvestSessionRepo(),
		Archive: archiveRepo,
		Trim:    trimRepo,
		Strain:  newMockStrainRepo(),
		Veg:     newMockVegBatchRepo(),
		Clone:   newMockCloneCutRepo(),
		Task:    taskRepo,
		RoomLog: logRepo,
		Audit:   newMockAuditLogRepo(),
	}
	logger := zap.NewNop()
	audit := NewAuditService(repo, logger)
	svc := NewArchiveService(repo, audit, nil, logger)
	return svc, roomRepo, archiveRepo, trimRepo, taskRepo, logRepo
}

func seedArchive(archiveRepo *mockCycleArchiveRepo, id string) *model.CycleArchive {
	a := &model.CycleArchive{
		ArchiveID:   id,
		RoomID:      "room-1",
		RoomNumber:  1,
		RoomName:    "Room 1",
		CycleName:   "Cycle 1",
		Strain:      "Gelato",
		PlantsCount: 10,
		StartDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		HarvestDate: time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC),
		HarvestData: model.HarvestData{TotalWetWeight: 5000, PlantsHarvested: 10},
		Metrics:     model.ArchiveMetrics{TotalWetWeight: 5000, AvgWeightPerPlant: 500},
		TrimStatus:  model.TrimStatusPending,
	}
	archiveRepo.archives[id] = a
	return a
}

// ── ArchiveCycle 测试 ──

func TestArchiveService_ArchiveCycle_ManualSplitsByAllocation(t *testing.T) {
	svc, roomRepo, archiveRepo, _, taskRepo, logRepo := setupTestArchiveService()
	room := seedActiveRoom(roomRepo)
	cycleID := *room.CurrentCycleID
	taskRepo.tasks["task-1"] = &model.RoomTask{TaskID: "task-1", RoomID: room.RoomID, CycleID: &cycleID}
	// 常设任务不挂周期，清场后保留
	taskRepo.tasks["task-2"] = &model.RoomTask{TaskID: "task-2", RoomID: room.RoomID}

	archive, err := svc.ArchiveCycle(context.Background(), room.RoomID, nil, 3000, "手动归档", "user-001")
	if err != nil {
		t.Fatalf("ArchiveCycle 应成功: %v", err)
	}
	if archive == nil {
		t.Fatal("应返回归档")
	}
	if archive.HarvestData.TotalWetWeight != 3000 {
		t.Errorf("期望总湿重=3000，实际=%v", archive.HarvestData.TotalWetWeight)
	}
	// Gelato 10株 / Wedding Cake 5株，按比例 2000 / 1000
	if len(archive.StrainData) != 2 {
		t.Fatalf("期望按品种拆分2条，实际=%d", len(archive.StrainData))
	}
	if archive.StrainData[0].WetWeight != 2000 || archive.StrainData[1].WetWeight != 1000 {
		t.Errorf("期望湿重按株数比例拆分 2000/1000，实际=%v/%v",
			archive.StrainData[0].WetWeight, archive.StrainData[1].WetWeight)
	}
	if len(archiveRepo.archives) != 1 {
		t.Errorf("期望持久化1条归档，实际=%d", len(archiveRepo.archives))
	}

	// 房间重置，周期数累加，周期任务软删除，常设任务保留
	if room.IsActive || room.CurrentCycleID != nil || room.PlantsCount != 0 {
		t.Error("归档后房间应被重置")
	}
	if room.TotalCycles != 1 {
		t.Errorf("归档后周期数应累加为1，实际=%d", room.TotalCycles)
	}
	if !taskRepo.tasks["task-1"].DeletedAt.Valid {
		t.Error("归档后周期任务应被软删除")
	}
	if taskRepo.tasks["task-2"].DeletedAt.Valid {
		t.Error("常设任务不应被周期清场删除")
	}
	logs, _ := logRepo.ListByRoom(context.Background(), room.RoomID, 0)
	if len(logs) != 1 || logs[0].Type != model.RoomLogTypeCycleArchive {
		t.Errorf("应写入一条归档日志，实际=%v", logs)
	}
}

func TestArchiveService_ArchiveCycle_TestRoomSkipsArchive(t *testing.T) {
	svc, roomRepo, archiveRepo, _, _, logRepo := setupTestArchiveService()
	room := seedActiveRoom(roomRepo)
	room.IsTestRoom = true
	room.TotalCycles = 4

	archive, err := svc.ArchiveCycle(context.Background(), room.RoomID, nil, 3000, "", "user-001")
	if err != nil {
		t.Fatalf("ArchiveCycle 应成功: %v", err)
	}
	if archive != nil {
		t.Error("测试房不应生成归档")
	}
	if len(archiveRepo.archives) != 0 {
		t.Errorf("测试房不应持久化归档，实际=%d", len(archiveRepo.archives))
	}
	if room.IsActive {
		t.Error("测试房周期结束后房间仍应重置")
	}
	if room.TotalCycles != 4 {
		t.Errorf("测试房周期数不应累加，实际=%d", room.TotalCycles)
	}
	logs, _ := logRepo.ListByRoom(context.Background(), room.RoomID, 0)
	if len(logs) != 0 {
		t.Errorf("测试房不应写入归档日志，实际=%v", logs)
	}
}

func TestArchiveService_ArchiveCycle_ClearsPlantPositions(t *testing.T) {
	svc, roomRepo, _, _, _, _ := setupTestArchiveService()
	room := seedActiveRoom(roomRepo)
	room.RoomLayout = model.JSONMap{
		"rows":           4,
		"plantPositions": []interface{}{map[string]interface{}{"plant": 1, "row": 1}},
	}

	if _, err := svc.ArchiveCycle(context.Background(), room.RoomID, nil, 3000, "", "user-001"); err != nil {
		t.Fatalf("ArchiveCycle 应成功: %v", err)
	}

	positions, ok := room.RoomLayout["plantPositions"].([]interface{})
	if !ok || len(positions) != 0 {
		t.Errorf("清场后株位布局应清空，实际=%v", room.RoomLayout["plantPositions"])
	}
	if room.RoomLayout["rows"] != 4 {
		t.Errorf("房间布局其余字段应保留，实际=%v", room.RoomLayout["rows"])
	}
}

func TestArchiveService_ArchiveCycle_IdempotentForSameCycle(t *testing.T) {
	svc, roomRepo, _, _, _, _ := setupTestArchiveService()
	room := seedActiveRoom(roomRepo)
	start := *room.StartDate

	first, err := svc.ArchiveCycle(context.Background(), room.RoomID, nil, 3000, "", "user-001")
	if err != nil {
		t.Fatalf("ArchiveCycle 应成功: %v", err)
	}

	// 重新激活同一周期（相同开始日期），重复归档应返回已有归档并重新清场
	room.IsActive = true
	room.StartDate = &start
	second, err := svc.ArchiveCycle(context.Background(), room.RoomID, nil, 9999, "", "user-001")
	if err != nil {
		t.Fatalf("重复归档应成功: %v", err)
	}
	if second.ArchiveID != first.ArchiveID {
		t.Errorf("同周期重复归档应返回已有归档，实际 %s != %s", second.ArchiveID, first.ArchiveID)
	}
	if second.HarvestData.TotalWetWeight != 3000 {
		t.Errorf("重复归档不应覆盖数据，实际=%v", second.HarvestData.TotalWetWeight)
	}
	if room.IsActive || room.StartDate != nil {
		t.Error("重复归档同样应重置房间")
	}
	if room.TotalCycles != 1 {
		t.Errorf("同一周期只应计数一次，实际=%d", room.TotalCycles)
	}
}

func TestArchiveService_ArchiveCycle_RoomNotActive(t *testing.T) {
	svc, roomRepo, _, _, _, _ := setupTestArchiveService()
	roomRepo.rooms["room-1"] = &model.FlowerRoom{RoomID: "room-1", RoomNumber: 1}

	_, err := svc.ArchiveCycle(context.Background(), "room-1", nil, 3000, "", "user-001")
	if !errors.Is(err, ErrRoomCycleNotActive) {
		t.Errorf("期望 ErrRoomCycleNotActive，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestArchiveService_Update_WeightRecomputesMetrics(t *testing.T) {
	svc, _, archiveRepo, trimRepo, _, _ := setupTestArchiveService()
	seedArchive(archiveRepo, "arch-1")
	trimRepo.logs["tl-1"] = &model.TrimLog{TrimLogID: "tl-1", ArchiveID: "arch-1", Weight: 500}

	wet := 4000.0
	updated, err := svc.Update(context.Background(), "arch-1", &dto.UpdateArchiveRequest{TotalWetWeight: &wet}, "user-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.Metrics.TotalWetWeight != 4000 {
		t.Errorf("期望指标总湿重=4000，实际=%v", updated.Metrics.TotalWetWeight)
	}
	if updated.Metrics.TotalTrimWeight != 500 {
		t.Errorf("期望干重=500，实际=%v", updated.Metrics.TotalTrimWeight)
	}
	if updated.HarvestData.DryWeight != 500 {
		t.Errorf("干重应回写收获快照，实际=%v", updated.HarvestData.DryWeight)
	}
	if updated.Metrics.DryToWetPercent == nil || *updated.Metrics.DryToWetPercent != 12.5 {
		t.Errorf("期望干湿比=12.5，实际=%v", updated.Metrics.DryToWetPercent)
	}
	// 10 株 → round(500/10)=50 克/株
	if updated.Metrics.GramsPerPlant == nil || *updated.Metrics.GramsPerPlant != 50 {
		t.Errorf("期望克/株=50，实际=%v", updated.Metrics.GramsPerPlant)
	}
}

func TestArchiveService_Update_StrainDataRecomputesTotals(t *testing.T) {
	svc, _, archiveRepo, _, _, _ := setupTestArchiveService()
	seedArchive(archiveRepo, "arch-1")

	updated, err := svc.Update(context.Background(), "arch-1", &dto.UpdateArchiveRequest{
		StrainData: []dto.StrainYieldInput{
			{Name: "Gelato", PlantsCount: 6, WetWeight: 2400},
			{Name: "Wedding Cake", PlantsCount: 4, WetWeight: 1600},
		},
	}, "user-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.HarvestData.TotalWetWeight != 4000 {
		t.Errorf("期望总湿重按品种数据重算=4000，实际=%v", updated.HarvestData.TotalWetWeight)
	}
	if updated.PlantsCount != 10 {
		t.Errorf("期望株数重算=10，实际=%d", updated.PlantsCount)
	}
}

func TestArchiveService_Update_NotFound(t *testing.T) {
	svc, _, _, _, _, _ := setupTestArchiveService()

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateArchiveRequest{}, "user-001")
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("期望 ErrArchiveNotFound，实际: %v", err)
	}
}

// ── Delete / Restore 测试 ──

func TestArchiveService_DeleteAndRestore(t *testing.T) {
	svc, _, archiveRepo, _, _, _ := setupTestArchiveService()
	seedArchive(archiveRepo, "arch-1")

	if err := svc.Delete(context.Background(), "arch-1", "user-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	stored := archiveRepo.archives["arch-1"]
	if !stored.DeletedAt.Valid {
		t.Fatal("删除后应为软删除状态")
	}
	if stored.DeletedBy == nil || *stored.DeletedBy != "user-001" {
		t.Errorf("应记录删除人，实际=%v", stored.DeletedBy)
	}
	if _, err := svc.GetByID(context.Background(), "arch-1"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("软删除后查询应返回 ErrArchiveNotFound，实际: %v", err)
	}

	deleted, err := svc.ListDeleted(context.Background())
	if err != nil || len(deleted) != 1 {
		t.Fatalf("回收站应有1条归档，实际=%d err=%v", len(deleted), err)
	}

	restored, err := svc.Restore(context.Background(), "arch-1", "user-001")
	if err != nil {
		t.Fatalf("Restore 应成功: %v", err)
	}
	if restored.DeletedAt.Valid {
		t.Error("恢复后软删除标记应被清除")
	}
}

func TestArchiveService_Restore_NotDeleted(t *testing.T) {
	svc, _, archiveRepo, _, _, _ := setupTestArchiveService()
	seedArchive(archiveRepo, "arch-1")

	_, err := svc.Restore(context.Background(), "arch-1", "user-001")
	if !errors.Is(err, ErrArchiveNotDeleted) {
		t.Errorf("期望 ErrArchiveNotDeleted，实际: %v", err)
	}
}

// ── Stats 测试 ──

func TestArchiveService_Stats_AggregatesByStrain(t *testing.T) {
	svc, _, archiveRepo, _, _, _ := setupTestArchiveService()

	ratio1 := 20.0
	archiveRepo.archives["arch-1"] = &model.CycleArchive{
		ArchiveID: "arch-1", RoomID: "room-1", RoomName: "Room 1", Strain: "Gelato", PlantsCount: 10,
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		HarvestDate: time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC),
		StrainData: model.StrainYields{
			{Name: "Gelato", PlantsCount: 10, WetWeight: 5000},
		},
		Metrics: model.ArchiveMetrics{TotalWetWeight: 5000, TotalTrimWeight: 1000, DryToWetPercent: &ratio1},
	}
	// 无 strain_data 的旧归档按主品种回退
	archiveRepo.archives["arch-2"] = &model.CycleArchive{
		ArchiveID: "arch-2", RoomID: "room-2", RoomName: "Room 2", Strain: "gelato", PlantsCount: 5,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		HarvestDate: time.Date(2026, 4, 26, 0, 0, 0, 0, time.UTC),
		Metrics:     model.ArchiveMetrics{TotalWetWeight: 2500},
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if stats.TotalArchives != 2 {
		t.Errorf("期望归档总数=2，实际=%d", stats.TotalArchives)
	}
	if stats.TotalWetWeight != 7500 {
		t.Errorf("期望总湿重=7500，实际=%v", stats.TotalWetWeight)
	}
	if stats.TotalTrimWeight != 1000 {
		t.Errorf("期望总干重=1000，实际=%v", stats.TotalTrimWeight)
	}
	if stats.TotalPlants != 15 {
		t.Errorf("期望总株数=15，实际=%d", stats.TotalPlants)
	}
	if stats.AvgDryToWet == nil || *stats.AvgDryToWet != 20 {
		t.Errorf("期望平均干湿比=20，实际=%v", stats.AvgDryToWet)
	}
	// 品种名大小写不同应聚合到同一条
	if len(stats.ByStrain) != 1 {
		t.Fatalf("期望按品种聚合为1条，实际=%d", len(stats.ByStrain))
	}
	st := stats.ByStrain[0]
	if st.Cycles != 2 || st.TotalWetWeight != 7500 {
		t.Errorf("期望 Gelato 2周期7500克，实际 cycles=%d wet=%v", st.Cycles, st.TotalWetWeight)
	}
	if st.AvgWetPerPlant != 500 {
		t.Errorf("期望平均单株=500，实际=%v", st.AvgWetPerPlant)
	}
	if len(stats.ByMonth) != 2 || stats.ByMonth[0].Month != "2026-02" || stats.ByMonth[0].TotalWetWeight != 5000 {
		t.Errorf("期望按月聚合2条且首条为2026-02/5000克，实际=%v", stats.ByMonth)
	}
	if len(stats.ByRoom) != 2 {
		t.Fatalf("期望按房间聚合为2条，实际=%d", len(stats.ByRoom))
	}
	if stats.ByRoom[0].RoomName != "Room 1" || stats.ByRoom[0].Cycles != 1 || stats.ByRoom[0].TotalWetWeight != 5000 {
		t.Errorf("期望 Room 1 1周期5000克，实际=%v", stats.ByRoom[0])
	}
}

// ── List 过滤测试 ──

func TestArchiveService_List_FilterByStrainAndYear(t *testing.T) {
	svc, _, archiveRepo, _, _, _ := setupTestArchiveService()
	seedArchive(archiveRepo, "arch-1")
	archiveRepo.archives["arch-2"] = &model.CycleArchive{
		ArchiveID: "arch-2", RoomID: "room-2", Strain: "Wedding Cake", PlantsCount: 5,
		StartDate:   time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		HarvestDate: time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC),
	}

	result, err := svc.List(context.Background(), repository.ArchiveFilter{Strain: "gelato"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].ArchiveID != "arch-1" {
		t.Errorf("按品种过滤应仅返回 arch-1，实际=%v", result)
	}

	result, err = svc.List(context.Background(), repository.ArchiveFilter{Year: 2025})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].ArchiveID != "arch-2" {
		t.Errorf("按年份过滤应仅返回 arch-2，实际=%v", result)
	}
}
