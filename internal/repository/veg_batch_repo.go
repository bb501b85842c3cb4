package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// VegBatchRepository 育苗批次数据访问接口
type VegBatchRepository interface {
	Create(ctx context.Context, batch *model.VegBatch) error
	GetByID(ctx context.Context, id string) (*model.VegBatch, error)
	List(ctx context.Context, activeOnly bool) ([]model.VegBatch, error)
	GetLatestByFlowerRoom(ctx context.Context, roomID string) (*model.VegBatch, error)
	Update(ctx context.Context, batch *model.VegBatch) error
	Delete(ctx context.Context, id string) error
}

type vegBatchRepo struct {
	db *gorm.DB
}

// NewVegBatchRepo 创建 VegBatchRepository 实例
func NewVegBatchRepo(db *gorm.DB) VegBatchRepository {
	return &vegBatchRepo{db: db}
}

func (r *vegBatchRepo) Create(ctx context.Context, batch *model.VegBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *vegBatchRepo) GetByID(ctx context.Context, id string) (*model.VegBatch, error) {
	var batch model.VegBatch
	err := r.db.WithContext(ctx).
		Where("veg_batch_id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *vegBatchRepo) List(ctx context.Context, activeOnly bool) ([]model.VegBatch, error) {
	var batches []model.VegBatch
	q := r.db.WithContext(ctx).Order("transplanted_to_veg_at DESC")
	if activeOnly {
		q = q.Where("transplanted_to_flower_at IS NULL")
	}
	err := q.Find(&batches).Error
	return batches, err
}

// GetLatestByFlowerRoom 返回最近一次转入指定开花房的批次（周期溯源用）
func (r *vegBatchRepo) GetLatestByFlowerRoom(ctx context.Context, roomID string) (*model.VegBatch, error) {
	var batch model.VegBatch
	err := r.db.WithContext(ctx).
		Where("flower_room_id = ? AND transplanted_to_flower_at IS NOT NULL", roomID).
		Order("transplanted_to_flower_at DESC").
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *vegBatchRepo) Update(ctx context.Context, batch *model.VegBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *vegBatchRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("veg_batch_id = ?", id).
		Delete(&model.VegBatch{}).Error
}
