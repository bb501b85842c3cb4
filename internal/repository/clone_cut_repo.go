package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloomtrack/backend/internal/model"
)

// CloneCutRepository 克隆剪切批次数据访问接口
type CloneCutRepository interface {
	Upsert(ctx context.Context, cut *model.CloneCut) error
	GetByID(ctx context.Context, id string) (*model.CloneCut, error)
	GetByRoom(ctx context.Context, roomID string) (*model.CloneCut, error)
	List(ctx context.Context) ([]model.CloneCut, error)
	Update(ctx context.Context, cut *model.CloneCut) error
	Delete(ctx context.Context, id string) error
}

type cloneCutRepo struct {
	db *gorm.DB
}

// NewCloneCutRepo 创建 CloneCutRepository 实例
func NewCloneCutRepo(db *gorm.DB) CloneCutRepository {
	return &cloneCutRepo{db: db}
}

// Upsert 按 room_id 插入或更新（每房间一条计划）
func (r *cloneCutRepo) Upsert(ctx context.Context, cut *model.CloneCut) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cut_date", "strains", "strain", "quantity",
				"initial_quantity", "is_done", "notes", "updated_at",
			}),
		}).
		Create(cut).Error
}

func (r *cloneCutRepo) GetByID(ctx context.Context, id string) (*model.CloneCut, error) {
	var cut model.CloneCut
	err := r.db.WithContext(ctx).
		Where("clone_cut_id = ?", id).
		First(&cut).Error
	if err != nil {
		return nil, err
	}
	return &cut, nil
}

func (r *cloneCutRepo) GetByRoom(ctx context.Context, roomID string) (*model.CloneCut, error) {
	var cut model.CloneCut
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		First(&cut).Error
	if err != nil {
		return nil, err
	}
	return &cut, nil
}

func (r *cloneCutRepo) List(ctx context.Context) ([]model.CloneCut, error) {
	var cuts []model.CloneCut
	err := r.db.WithContext(ctx).
		Order("cut_date DESC").
		Find(&cuts).Error
	return cuts, err
}

func (r *cloneCutRepo) Update(ctx context.Context, cut *model.CloneCut) error {
	return r.db.WithContext(ctx).Save(cut).Error
}

func (r *cloneCutRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("clone_cut_id = ?", id).
		Delete(&model.CloneCut{}).Error
}
