package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// RoomRepository 开花房数据访问接口
type RoomRepository interface {
	Create(ctx context.Context, room *model.FlowerRoom) error
	GetByID(ctx context.Context, id string) (*model.FlowerRoom, error)
	GetByNumber(ctx context.Context, number int) (*model.FlowerRoom, error)
	List(ctx context.Context) ([]model.FlowerRoom, error)
	Update(ctx context.Context, room *model.FlowerRoom) error
	Count(ctx context.Context) (int64, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.FlowerRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.FlowerRoom, error) {
	var room model.FlowerRoom
	err := r.db.WithContext(ctx).
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) GetByNumber(ctx context.Context, number int) (*model.FlowerRoom, error) {
	var room model.FlowerRoom
	err := r.db.WithContext(ctx).
		Where("room_number = ?", number).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context) ([]model.FlowerRoom, error) {
	var rooms []model.FlowerRoom
	err := r.db.WithContext(ctx).
		Order("room_number ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) Update(ctx context.Context, room *model.FlowerRoom) error {
	return r.db.WithContext(ctx).Save(room).Error
}

func (r *roomRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FlowerRoom{}).
		Count(&count).Error
	return count, err
}
