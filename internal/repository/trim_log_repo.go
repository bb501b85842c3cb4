package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// TrimLogRepository 修剪日志数据访问接口
type TrimLogRepository interface {
	Create(ctx context.Context, log *model.TrimLog) error
	GetByID(ctx context.Context, id string) (*model.TrimLog, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.TrimLog, error)
	ListByArchive(ctx context.Context, archiveID string) ([]model.TrimLog, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.TrimLog, error)
	ListAll(ctx context.Context) ([]model.TrimLog, error)
	Update(ctx context.Context, log *model.TrimLog) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string) error
	SumByArchive(ctx context.Context, archiveID string) (float64, error)
}

type trimLogRepo struct {
	db *gorm.DB
}

// NewTrimLogRepo 创建 TrimLogRepository 实例
func NewTrimLogRepo(db *gorm.DB) TrimLogRepository {
	return &trimLogRepo{db: db}
}

func (r *trimLogRepo) Create(ctx context.Context, log *model.TrimLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *trimLogRepo) GetByID(ctx context.Context, id string) (*model.TrimLog, error) {
	var log model.TrimLog
	err := r.db.WithContext(ctx).
		Where("trim_log_id = ?", id).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *trimLogRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.TrimLog, error) {
	var log model.TrimLog
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("trim_log_id = ?", id).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *trimLogRepo) ListByArchive(ctx context.Context, archiveID string) ([]model.TrimLog, error) {
	var logs []model.TrimLog
	err := r.db.WithContext(ctx).
		Where("archive_id = ?", archiveID).
		Order("date ASC").
		Find(&logs).Error
	return logs, err
}

func (r *trimLogRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.TrimLog, error) {
	var logs []model.TrimLog
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&logs).Error
	return logs, err
}

func (r *trimLogRepo) ListAll(ctx context.Context) ([]model.TrimLog, error) {
	var logs []model.TrimLog
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&logs).Error
	return logs, err
}

func (r *trimLogRepo) Update(ctx context.Context, log *model.TrimLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *trimLogRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TrimLog{}).
		Where("trim_log_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *trimLogRepo) Restore(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&model.TrimLog{}).
		Where("trim_log_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": nil,
			"deleted_at": nil,
		}).Error
}

// SumByArchive 归档下有效日志重量合计
func (r *trimLogRepo) SumByArchive(ctx context.Context, archiveID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.TrimLog{}).
		Where("archive_id = ?", archiveID).
		Select("COALESCE(SUM(weight), 0)").
		Scan(&total).Error
	return total, err
}
