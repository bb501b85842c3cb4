package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// RoomLogRepository 房间事件日志数据访问接口
type RoomLogRepository interface {
	Create(ctx context.Context, log *model.RoomLog) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]model.RoomLog, error)
	ListByCycle(ctx context.Context, roomID, cycleID string) ([]model.RoomLog, error)
	ListByCycleAndType(ctx context.Context, roomID, cycleID, logType string) ([]model.RoomLog, error)
}

type roomLogRepo struct {
	db *gorm.DB
}

// NewRoomLogRepo 创建 RoomLogRepository 实例
func NewRoomLogRepo(db *gorm.DB) RoomLogRepository {
	return &roomLogRepo{db: db}
}

func (r *roomLogRepo) Create(ctx context.Context, log *model.RoomLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *roomLogRepo) ListByRoom(ctx context.Context, roomID string, limit int) ([]model.RoomLog, error) {
	var logs []model.RoomLog
	q := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}

func (r *roomLogRepo) ListByCycle(ctx context.Context, roomID, cycleID string) ([]model.RoomLog, error) {
	var logs []model.RoomLog
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND cycle_id = ?", roomID, cycleID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *roomLogRepo) ListByCycleAndType(ctx context.Context, roomID, cycleID, logType string) ([]model.RoomLog, error) {
	var logs []model.RoomLog
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND cycle_id = ? AND type = ?", roomID, cycleID, logType).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
