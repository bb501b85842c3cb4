package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// StrainRepository 品种库数据访问接口
type StrainRepository interface {
	Create(ctx context.Context, strain *model.Strain) error
	GetByID(ctx context.Context, id string) (*model.Strain, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.Strain, error)
	List(ctx context.Context) ([]model.Strain, error)
	ListUnscoped(ctx context.Context) ([]model.Strain, error)
	ListDeletedSince(ctx context.Context, since time.Time) ([]model.Strain, error)
	Update(ctx context.Context, strain *model.Strain) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string) error
}

type strainRepo struct {
	db *gorm.DB
}

// NewStrainRepo 创建 StrainRepository 实例
func NewStrainRepo(db *gorm.DB) StrainRepository {
	return &strainRepo{db: db}
}

func (r *strainRepo) Create(ctx context.Context, strain *model.Strain) error {
	return r.db.WithContext(ctx).Create(strain).Error
}

func (r *strainRepo) GetByID(ctx context.Context, id string) (*model.Strain, error) {
	var strain model.Strain
	err := r.db.WithContext(ctx).
		Where("strain_id = ?", id).
		First(&strain).Error
	if err != nil {
		return nil, err
	}
	return &strain, nil
}

func (r *strainRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Strain, error) {
	var strain model.Strain
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("strain_id = ?", id).
		First(&strain).Error
	if err != nil {
		return nil, err
	}
	return &strain, nil
}

func (r *strainRepo) List(ctx context.Context) ([]model.Strain, error) {
	var strains []model.Strain
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&strains).Error
	return strains, err
}

// ListUnscoped 含已软删除条目（重建同名品种时做恢复判断用）
func (r *strainRepo) ListUnscoped(ctx context.Context) ([]model.Strain, error) {
	var strains []model.Strain
	err := r.db.WithContext(ctx).
		Unscoped().
		Order("name ASC").
		Find(&strains).Error
	return strains, err
}

func (r *strainRepo) ListDeletedSince(ctx context.Context, since time.Time) ([]model.Strain, error) {
	var strains []model.Strain
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at >= ?", since).
		Order("deleted_at DESC").
		Find(&strains).Error
	return strains, err
}

func (r *strainRepo) Update(ctx context.Context, strain *model.Strain) error {
	return r.db.WithContext(ctx).Save(strain).Error
}

func (r *strainRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Strain{}).
		Where("strain_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *strainRepo) Restore(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Strain{}).
		Where("strain_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": nil,
			"deleted_at": nil,
		}).Error
}
