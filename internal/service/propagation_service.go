package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// ── 育苗 / 克隆模块业务错误 ──

var (
	ErrCloneCutNotFound    = errors.New("克隆剪切计划不存在")
	ErrVegBatchNotFound    = errors.New("育苗批次不存在")
	ErrVegQuantityExceeded = errors.New("转入数量超过批次剩余数量")
	ErrCutDateInvalid      = errors.New("日期格式无效")
)

// PropagationService 育苗与克隆业务接口
type PropagationService interface {
	UpsertCloneCut(ctx context.Context, req *dto.UpsertCloneCutRequest, callerID string) (*model.CloneCut, error)
	ListCloneCuts(ctx context.Context) ([]model.CloneCut, error)
	MarkCloneCutDone(ctx context.Context, id string) (*model.CloneCut, error)
	DeleteCloneCut(ctx context.Context, id string) error

	CreateVegBatch(ctx context.Context, req *dto.CreateVegBatchRequest, callerID string) (*model.VegBatch, error)
	ListVegBatches(ctx context.Context, activeOnly bool) ([]model.VegBatch, error)
	GetVegBatch(ctx context.Context, id string) (*model.VegBatch, error)
	UpdateVegBatch(ctx context.Context, id string, req *dto.UpdateVegBatchRequest) (*model.VegBatch, error)
	TransplantToFlower(ctx context.Context, id string, req *dto.TransplantToFlowerRequest, callerID string) (*model.VegBatch, error)
	DeleteVegBatch(ctx context.Context, id string) error
}

type propagationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPropagationService 创建 PropagationService 实例
func NewPropagationService(repo *repository.Repository, logger *zap.Logger) PropagationService {
	return &propagationService{repo: repo, logger: logger}
}

// ────────────────────── 克隆剪切 ──────────────────────

func (s *propagationService) UpsertCloneCut(ctx context.Context, req *dto.UpsertCloneCutRequest, callerID string) (*model.CloneCut, error) {
	cutDate, err := time.Parse("2006-01-02", req.CutDate)
	if err != nil {
		return nil, ErrCutDateInvalid
	}
	if req.RoomID != "" {
		if _, err := s.repo.Room.GetByID(ctx, req.RoomID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRoomNotFound
			}
			s.logger.Error("查询房间失败", zap.String("id", req.RoomID), zap.Error(err))
			return nil, err
		}
	}

	cut := &model.CloneCut{
		CutDate:         cutDate,
		Strains:         req.Strains,
		Strain:          strings.Join(req.Strains, ", "),
		Quantity:        req.Quantity,
		InitialQuantity: req.Quantity,
		Notes:           req.Notes,
	}
	if req.RoomID != "" {
		cut.RoomID = &req.RoomID
	}

	if err := s.repo.Clone.Upsert(ctx, cut); err != nil {
		s.logger.Error("保存克隆剪切计划失败", zap.Error(err))
		return nil, err
	}
	return cut, nil
}

func (s *propagationService) ListCloneCuts(ctx context.Context) ([]model.CloneCut, error) {
	cuts, err := s.repo.Clone.List(ctx)
	if err != nil {
		s.logger.Error("列出克隆剪切计划失败", zap.Error(err))
		return nil, err
	}
	return cuts, nil
}

func (s *propagationService) MarkCloneCutDone(ctx context.Context, id string) (*model.CloneCut, error) {
	cut, err := s.repo.Clone.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCloneCutNotFound
		}
		s.logger.Error("查询克隆剪切计划失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	cut.IsDone = true
	if err := s.repo.Clone.Update(ctx, cut); err != nil {
		s.logger.Error("更新克隆剪切计划失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return cut, nil
}

func (s *propagationService) DeleteCloneCut(ctx context.Context, id string) error {
	if _, err := s.repo.Clone.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCloneCutNotFound
		}
		s.logger.Error("查询克隆剪切计划失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.repo.Clone.Delete(ctx, id); err != nil {
		s.logger.Error("删除克隆剪切计划失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 育苗批次 ──────────────────────

func (s *propagationService) CreateVegBatch(ctx context.Context, req *dto.CreateVegBatchRequest, callerID string) (*model.VegBatch, error) {
	cutDate, err := time.Parse("2006-01-02", req.CutDate)
	if err != nil {
		return nil, ErrCutDateInvalid
	}

	vegAt := time.Now()
	if req.TransplantedToVegAt != nil && *req.TransplantedToVegAt != "" {
		parsed, err := time.Parse("2006-01-02", *req.TransplantedToVegAt)
		if err != nil {
			return nil, ErrCutDateInvalid
		}
		vegAt = parsed
	}

	batch := &model.VegBatch{
		Name:                req.Name,
		SourceCloneCutID:    req.SourceCloneCutID,
		Strains:             req.Strains,
		Strain:              strings.Join(req.Strains, ", "),
		Quantity:            req.Quantity,
		InitialQuantity:     req.Quantity,
		CutDate:             cutDate,
		TransplantedToVegAt: vegAt,
		VegDaysTarget:       21,
		Notes:               req.Notes,
	}
	if req.VegDaysTarget != nil {
		batch.VegDaysTarget = *req.VegDaysTarget
	}

	if err := s.repo.Veg.Create(ctx, batch); err != nil {
		s.logger.Error("创建育苗批次失败", zap.Error(err))
		return nil, err
	}

	// 来源剪切计划标记完成
	if req.SourceCloneCutID != nil {
		if _, err := s.MarkCloneCutDone(ctx, *req.SourceCloneCutID); err != nil && !errors.Is(err, ErrCloneCutNotFound) {
			s.logger.Warn("标记剪切计划完成失败", zap.String("clone_cut_id", *req.SourceCloneCutID), zap.Error(err))
		}
	}
	return batch, nil
}

func (s *propagationService) ListVegBatches(ctx context.Context, activeOnly bool) ([]model.VegBatch, error) {
	batches, err := s.repo.Veg.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("列出育苗批次失败", zap.Error(err))
		return nil, err
	}
	return batches, nil
}

func (s *propagationService) GetVegBatch(ctx context.Context, id string) (*model.VegBatch, error) {
	batch, err := s.repo.Veg.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVegBatchNotFound
		}
		s.logger.Error("查询育苗批次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return batch, nil
}

func (s *propagationService) UpdateVegBatch(ctx context.Context, id string, req *dto.UpdateVegBatchRequest) (*model.VegBatch, error) {
	batch, err := s.GetVegBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		batch.Name = *req.Name
	}
	if req.Quantity != nil {
		batch.Quantity = *req.Quantity
	}
	if req.VegDaysTarget != nil {
		batch.VegDaysTarget = *req.VegDaysTarget
	}
	if req.Notes != nil {
		batch.Notes = *req.Notes
	}
	if len(req.Strains) > 0 {
		batch.Strains = req.Strains
		batch.Strain = strings.Join(req.Strains, ", ")
	}

	if err := s.repo.Veg.Update(ctx, batch); err != nil {
		s.logger.Error("更新育苗批次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return batch, nil
}

// TransplantToFlower 将批次部分或全部株数转入开花房（周期溯源的依据）
func (s *propagationService) TransplantToFlower(ctx context.Context, id string, req *dto.TransplantToFlowerRequest, callerID string) (*model.VegBatch, error) {
	batch, err := s.GetVegBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Quantity > batch.Quantity {
		return nil, ErrVegQuantityExceeded
	}
	if _, err := s.repo.Room.GetByID(ctx, req.FlowerRoomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", req.FlowerRoomID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	batch.Quantity -= req.Quantity
	batch.SentToFlowerCount += req.Quantity
	batch.FlowerRoomID = &req.FlowerRoomID
	batch.TransplantedToFlowerAt = &now

	if err := s.repo.Veg.Update(ctx, batch); err != nil {
		s.logger.Error("转入开花房失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return batch, nil
}

func (s *propagationService) DeleteVegBatch(ctx context.Context, id string) error {
	if _, err := s.GetVegBatch(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Veg.Delete(ctx, id); err != nil {
		s.logger.Error("删除育苗批次失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
