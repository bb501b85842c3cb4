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

func setupTestPropagationService() (PropagationService, *mockRoomRepo, *mockCloneCutRepo, *mockVegBatchRepo) {
	roomRepo := newMockRoomRepo()
	cloneRepo := newMockCloneCutRepo()
	vegRepo := newMockVegBatchRepo()
	repo := &repository.Repository{
		Room:    roomRepo,
		Session: newMockHarvestSessionRepo(),
		Archive: newMockCycleArchiveRepo(),
		Trim:    newMockTrimLogRepo(),
		Strain:  newMockStrainRepo(),
		Veg:     vegRepo,
		Clone:   cloneRepo,
		Task:    newMockRoomTaskRepo(),
		RoomLog: newMockRoomLogRepo(),
		Audit:   newMockAuditLogRepo(),
	}
	svc := NewPropagationService(repo, zap.NewNop())
	return svc, roomRepo, cloneRepo, vegRepo
}

// ── 克隆剪切测试 ──

func TestPropagationService_UpsertCloneCut_Success(t *testing.T) {
	svc, _, cloneRepo, _ := setupTestPropagationService()

	cut, err := svc.UpsertCloneCut(context.Background(), &dto.UpsertCloneCutRequest{
		CutDate:  "2026-08-20",
		Strains:  []string{"Gelato", "Zkittlez"},
		Quantity: 100,
	}, "user-001")
	if err != nil {
		t.Fatalf("UpsertCloneCut 应成功: %v", err)
	}
	if cut.Strain != "Gelato, Zkittlez" {
		t.Errorf("期望品种标签=Gelato, Zkittlez，实际=%s", cut.Strain)
	}
	if cut.InitialQuantity != 100 {
		t.Errorf("期望初始数量=100，实际=%d", cut.InitialQuantity)
	}
	if len(cloneRepo.cuts) != 1 {
		t.Errorf("期望持久化1条计划，实际=%d", len(cloneRepo.cuts))
	}
}

func TestPropagationService_UpsertCloneCut_InvalidDate(t *testing.T) {
	svc, _, _, _ := setupTestPropagationService()

	_, err := svc.UpsertCloneCut(context.Background(), &dto.UpsertCloneCutRequest{
		CutDate:  "20/08/2026",
		Strains:  []string{"Gelato"},
		Quantity: 100,
	}, "user-001")
	if !errors.Is(err, ErrCutDateInvalid) {
		t.Errorf("期望 ErrCutDateInvalid，实际: %v", err)
	}
}

func TestPropagationService_UpsertCloneCut_RoomNotFound(t *testing.T) {
	svc, _, _, _ := setupTestPropagationService()

	_, err := svc.UpsertCloneCut(context.Background(), &dto.UpsertCloneCutRequest{
		RoomID:   "missing",
		CutDate:  "2026-08-20",
		Strains:  []string{"Gelato"},
		Quantity: 100,
	}, "user-001")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("期望 ErrRoomNotFound，实际: %v", err)
	}
}

func TestPropagationService_MarkCloneCutDone(t *testing.T) {
	svc, _, cloneRepo, _ := setupTestPropagationService()
	cloneRepo.cuts["cut-1"] = &model.CloneCut{CloneCutID: "cut-1", Quantity: 50}

	cut, err := svc.MarkCloneCutDone(context.Background(), "cut-1")
	if err != nil {
		t.Fatalf("MarkCloneCutDone 应成功: %v", err)
	}
	if !cut.IsDone {
		t.Error("计划应被标记完成")
	}

	if _, err := svc.MarkCloneCutDone(context.Background(), "missing"); !errors.Is(err, ErrCloneCutNotFound) {
		t.Errorf("期望 ErrCloneCutNotFound，实际: %v", err)
	}
}

// ── 育苗批次测试 ──

func TestPropagationService_CreateVegBatch_MarksSourceCutDone(t *testing.T) {
	svc, _, cloneRepo, vegRepo := setupTestPropagationService()
	cloneRepo.cuts["cut-1"] = &model.CloneCut{CloneCutID: "cut-1", Quantity: 50}

	sourceID := "cut-1"
	batch, err := svc.CreateVegBatch(context.Background(), &dto.CreateVegBatchRequest{
		SourceCloneCutID: &sourceID,
		Strains:          []string{"Gelato"},
		Quantity:         50,
		CutDate:          "2026-08-01",
	}, "user-001")
	if err != nil {
		t.Fatalf("CreateVegBatch 应成功: %v", err)
	}
	if batch.VegDaysTarget != 21 {
		t.Errorf("期望默认育苗目标天数=21，实际=%d", batch.VegDaysTarget)
	}
	if batch.InitialQuantity != 50 {
		t.Errorf("期望初始数量=50，实际=%d", batch.InitialQuantity)
	}
	if len(vegRepo.batches) != 1 {
		t.Errorf("期望持久化1个批次，实际=%d", len(vegRepo.batches))
	}
	if !cloneRepo.cuts["cut-1"].IsDone {
		t.Error("来源剪切计划应被标记完成")
	}
}

func TestPropagationService_TransplantToFlower_Partial(t *testing.T) {
	svc, roomRepo, _, vegRepo := setupTestPropagationService()
	roomRepo.rooms["room-1"] = &model.FlowerRoom{RoomID: "room-1", RoomNumber: 1}
	vegRepo.batches["veg-1"] = &model.VegBatch{VegBatchID: "veg-1", Quantity: 50}

	batch, err := svc.TransplantToFlower(context.Background(), "veg-1", &dto.TransplantToFlowerRequest{
		FlowerRoomID: "room-1",
		Quantity:     30,
	}, "user-001")
	if err != nil {
		t.Fatalf("TransplantToFlower 应成功: %v", err)
	}
	if batch.Quantity != 20 {
		t.Errorf("期望剩余数量=20，实际=%d", batch.Quantity)
	}
	if batch.SentToFlowerCount != 30 {
		t.Errorf("期望已转入数量=30，实际=%d", batch.SentToFlowerCount)
	}
	if batch.FlowerRoomID == nil || *batch.FlowerRoomID != "room-1" {
		t.Errorf("应记录目标开花房，实际=%v", batch.FlowerRoomID)
	}
	if batch.TransplantedToFlowerAt == nil {
		t.Error("应记录转入时间")
	}
}

func TestPropagationService_TransplantToFlower_QuantityExceeded(t *testing.T) {
	svc, roomRepo, _, vegRepo := setupTestPropagationService()
	roomRepo.rooms["room-1"] = &model.FlowerRoom{RoomID: "room-1", RoomNumber: 1}
	vegRepo.batches["veg-1"] = &model.VegBatch{VegBatchID: "veg-1", Quantity: 10}

	_, err := svc.TransplantToFlower(context.Background(), "veg-1", &dto.TransplantToFlowerRequest{
		FlowerRoomID: "room-1",
		Quantity:     11,
	}, "user-001")
	if !errors.Is(err, ErrVegQuantityExceeded) {
		t.Errorf("期望 ErrVegQuantityExceeded，实际: %v", err)
	}
}

func TestPropagationService_ListVegBatches_ActiveOnly(t *testing.T) {
	svc, _, _, vegRepo := setupTestPropagationService()
	now := time.Now()
	vegRepo.batches["veg-1"] = &model.VegBatch{VegBatchID: "veg-1", Quantity: 50}
	vegRepo.batches["veg-2"] = &model.VegBatch{VegBatchID: "veg-2", Quantity: 0, TransplantedToFlowerAt: &now}

	active, err := svc.ListVegBatches(context.Background(), true)
	if err != nil {
		t.Fatalf("ListVegBatches 应成功: %v", err)
	}
	if len(active) != 1 || active[0].VegBatchID != "veg-1" {
		t.Errorf("仅应返回未转入开花房的批次，实际=%v", active)
	}
}
