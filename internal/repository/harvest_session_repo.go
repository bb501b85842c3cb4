package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
)

// HarvestSessionRepository 收获会话数据访问接口
type HarvestSessionRepository interface {
	Create(ctx context.Context, session *model.HarvestSession) error
	GetByID(ctx context.Context, id string) (*model.HarvestSession, error)
	GetActiveByRoom(ctx context.Context, roomID string) (*model.HarvestSession, error)
	List(ctx context.Context, status string) ([]model.HarvestSession, error)
	ListAll(ctx context.Context) ([]model.HarvestSession, error)
	Update(ctx context.Context, session *model.HarvestSession) error

	AddPlant(ctx context.Context, plant *model.HarvestPlant) error
	GetPlant(ctx context.Context, plantID string) (*model.HarvestPlant, error)
	ListPlants(ctx context.Context, sessionID string) ([]model.HarvestPlant, error)
	PlantExists(ctx context.Context, sessionID string, plantNumber int) (bool, error)
	UpdatePlant(ctx context.Context, plant *model.HarvestPlant) error
	DeletePlant(ctx context.Context, plantID string) error
}

type harvestSessionRepo struct {
	db *gorm.DB
}

// NewHarvestSessionRepo 创建 HarvestSessionRepository 实例
func NewHarvestSessionRepo(db *gorm.DB) HarvestSessionRepository {
	return &harvestSessionRepo{db: db}
}

func (r *harvestSessionRepo) Create(ctx context.Context, session *model.HarvestSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *harvestSessionRepo) GetByID(ctx context.Context, id string) (*model.HarvestSession, error) {
	var session model.HarvestSession
	err := r.db.WithContext(ctx).
		Preload("Plants", func(db *gorm.DB) *gorm.DB {
			return db.Order("plant_number ASC")
		}).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActiveByRoom 返回房间当前进行中的会话（不存在返回 gorm.ErrRecordNotFound）
func (r *harvestSessionRepo) GetActiveByRoom(ctx context.Context, roomID string) (*model.HarvestSession, error) {
	var session model.HarvestSession
	err := r.db.WithContext(ctx).
		Preload("Plants", func(db *gorm.DB) *gorm.DB {
			return db.Order("plant_number ASC")
		}).
		Where("room_id = ? AND status = ?", roomID, model.SessionStatusInProgress).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *harvestSessionRepo) List(ctx context.Context, status string) ([]model.HarvestSession, error) {
	var sessions []model.HarvestSession
	q := r.db.WithContext(ctx).Order("started_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}

func (r *harvestSessionRepo) ListAll(ctx context.Context) ([]model.HarvestSession, error) {
	var sessions []model.HarvestSession
	err := r.db.WithContext(ctx).
		Preload("Plants").
		Order("started_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *harvestSessionRepo) Update(ctx context.Context, session *model.HarvestSession) error {
	return r.db.WithContext(ctx).Omit("Plants").Save(session).Error
}

func (r *harvestSessionRepo) AddPlant(ctx context.Context, plant *model.HarvestPlant) error {
	return r.db.WithContext(ctx).Create(plant).Error
}

func (r *harvestSessionRepo) GetPlant(ctx context.Context, plantID string) (*model.HarvestPlant, error) {
	var plant model.HarvestPlant
	err := r.db.WithContext(ctx).
		Where("plant_id = ?", plantID).
		First(&plant).Error
	if err != nil {
		return nil, err
	}
	return &plant, nil
}

func (r *harvestSessionRepo) ListPlants(ctx context.Context, sessionID string) ([]model.HarvestPlant, error) {
	var plants []model.HarvestPlant
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("plant_number ASC").
		Find(&plants).Error
	return plants, err
}

func (r *harvestSessionRepo) PlantExists(ctx context.Context, sessionID string, plantNumber int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.HarvestPlant{}).
		Where("session_id = ? AND plant_number = ?", sessionID, plantNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *harvestSessionRepo) UpdatePlant(ctx context.Context, plant *model.HarvestPlant) error {
	return r.db.WithContext(ctx).Save(plant).Error
}

func (r *harvestSessionRepo) DeletePlant(ctx context.Context, plantID string) error {
	return r.db.WithContext(ctx).
		Where("plant_id = ?", plantID).
		Delete(&model.HarvestPlant{}).Error
}
