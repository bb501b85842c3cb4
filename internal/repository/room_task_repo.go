package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// RoomTaskRepository 房间任务数据访问接口
type RoomTaskRepository interface {
	Create(ctx context.Context, task *model.RoomTask) error
	GetByID(ctx context.Context, id string) (*model.RoomTask, error)
	ListByRoom(ctx context.Context, roomID string) ([]model.RoomTask, error)
	ListCompletedByCycle(ctx context.Context, roomID, cycleID string) ([]model.RoomTask, error)
	Update(ctx context.Context, task *model.RoomTask) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	SoftDeleteByCycle(ctx context.Context, roomID, cycleID string) error
	SoftDeleteByRoom(ctx context.Context, roomID string) error
}

type roomTaskRepo struct {
	db *gorm.DB
}

// NewRoomTaskRepo 创建 RoomTaskRepository 实例
func NewRoomTaskRepo(db *gorm.DB) RoomTaskRepository {
	return &roomTaskRepo{db: db}
}

func (r *roomTaskRepo) Create(ctx context.Context, task *model.RoomTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *roomTaskRepo) GetByID(ctx context.Context, id string) (*model.RoomTask, error) {
	var task model.RoomTask
	err := r.db.WithContext(ctx).
		Where("task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *roomTaskRepo) ListByRoom(ctx context.Context, roomID string) ([]model.RoomTask, error) {
	var tasks []model.RoomTask
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *roomTaskRepo) ListCompletedByCycle(ctx context.Context, roomID, cycleID string) ([]model.RoomTask, error) {
	var tasks []model.RoomTask
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND cycle_id = ? AND completed = ?", roomID, cycleID, true).
		Order("completed_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *roomTaskRepo) Update(ctx context.Context, task *model.RoomTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *roomTaskRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.RoomTask{}).
		Where("task_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// SoftDeleteByCycle 归档清场时清空当前周期的任务，常设任务（无周期归属）保留
func (r *roomTaskRepo) SoftDeleteByCycle(ctx context.Context, roomID, cycleID string) error {
	return r.db.WithContext(ctx).
		Model(&model.RoomTask{}).
		Where("room_id = ? AND cycle_id = ? AND deleted_at IS NULL", roomID, cycleID).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

// SoftDeleteByRoom 清空房间全部任务（周期ID缺失时的兜底清场）
func (r *roomTaskRepo) SoftDeleteByRoom(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).
		Model(&model.RoomTask{}).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
