package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Room     RoomRepository
	Session  HarvestSessionRepository
	Archive  CycleArchiveRepository
	Trim     TrimLogRepository
	Strain   StrainRepository
	Veg      VegBatchRepository
	Clone    CloneCutRepository
	Task     RoomTaskRepository
	RoomLog  RoomLogRepository
	Audit    AuditLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:      db,
		Room:    NewRoomRepo(db),
		Session: NewHarvestSessionRepo(db),
		Archive: NewCycleArchiveRepo(db),
		Trim:    NewTrimLogRepo(db),
		Strain:  NewStrainRepo(db),
		Veg:     NewVegBatchRepo(db),
		Clone:   NewCloneCutRepo(db),
		Task:    NewRoomTaskRepo(db),
		RoomLog: NewRoomLogRepo(db),
		Audit:   NewAuditLogRepo(db),
	}
}

// BeginTx 开启事务。测试中以字面量构造的聚合（db 为 nil）返回 nil 事务，
// 调用方需对 nil 事务跳过提交/回滚。
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务的 Repository 副本；nil 事务返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
