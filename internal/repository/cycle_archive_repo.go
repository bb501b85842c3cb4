package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// ArchiveFilter 归档列表过滤条件
type ArchiveFilter struct {
	RoomID string
	Strain string
	Year   int
	Limit  int
	Offset int
}

// CycleArchiveRepository 周期归档数据访问接口
type CycleArchiveRepository interface {
	Create(ctx context.Context, archive *model.CycleArchive) error
	GetByID(ctx context.Context, id string) (*model.CycleArchive, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.CycleArchive, error)
	List(ctx context.Context, filter ArchiveFilter) ([]model.CycleArchive, error)
	ListDeleted(ctx context.Context) ([]model.CycleArchive, error)
	ListAll(ctx context.Context) ([]model.CycleArchive, error)
	Update(ctx context.Context, archive *model.CycleArchive) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string) error
	ExistsForCycle(ctx context.Context, roomID string, startDate time.Time) (bool, error)
	GetByCycle(ctx context.Context, roomID string, startDate time.Time) (*model.CycleArchive, error)
}

type cycleArchiveRepo struct {
	db *gorm.DB
}

// NewCycleArchiveRepo 创建 CycleArchiveRepository 实例
func NewCycleArchiveRepo(db *gorm.DB) CycleArchiveRepository {
	return &cycleArchiveRepo{db: db}
}

func (r *cycleArchiveRepo) Create(ctx context.Context, archive *model.CycleArchive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

func (r *cycleArchiveRepo) GetByID(ctx context.Context, id string) (*model.CycleArchive, error) {
	var archive model.CycleArchive
	err := r.db.WithContext(ctx).
		Where("archive_id = ?", id).
		First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

// GetByIDUnscoped 含已软删除的行（恢复操作用）
func (r *cycleArchiveRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.CycleArchive, error) {
	var archive model.CycleArchive
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("archive_id = ?", id).
		First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

func (r *cycleArchiveRepo) List(ctx context.Context, filter ArchiveFilter) ([]model.CycleArchive, error) {
	var archives []model.CycleArchive
	q := r.db.WithContext(ctx).Order("harvest_date DESC")
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.Strain != "" {
		q = q.Where("LOWER(strain) = LOWER(?)", filter.Strain)
	}
	if filter.Year > 0 {
		q = q.Where("EXTRACT(YEAR FROM harvest_date) = ?", filter.Year)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	err := q.Find(&archives).Error
	return archives, err
}

func (r *cycleArchiveRepo) ListDeleted(ctx context.Context) ([]model.CycleArchive, error) {
	var archives []model.CycleArchive
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&archives).Error
	return archives, err
}

func (r *cycleArchiveRepo) ListAll(ctx context.Context) ([]model.CycleArchive, error) {
	var archives []model.CycleArchive
	err := r.db.WithContext(ctx).
		Order("harvest_date DESC").
		Find(&archives).Error
	return archives, err
}

func (r *cycleArchiveRepo) Update(ctx context.Context, archive *model.CycleArchive) error {
	return r.db.WithContext(ctx).Save(archive).Error
}

func (r *cycleArchiveRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.CycleArchive{}).
		Where("archive_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *cycleArchiveRepo) Restore(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&model.CycleArchive{}).
		Where("archive_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": nil,
			"deleted_at": nil,
		}).Error
}

// ExistsForCycle 同一房间同一开始日期是否已有有效归档（幂等防重）
func (r *cycleArchiveRepo) ExistsForCycle(ctx context.Context, roomID string, startDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CycleArchive{}).
		Where("room_id = ? AND start_date = ?", roomID, startDate).
		Count(&count).Error
	return count > 0, err
}

// GetByCycle 按房间与开始日期取同周期归档（重复归档时返回已有记录）
func (r *cycleArchiveRepo) GetByCycle(ctx context.Context, roomID string, startDate time.Time) (*model.CycleArchive, error) {
	var archive model.CycleArchive
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND start_date = ?", roomID, startDate).
		First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}
