package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// ── 房间任务模块业务错误 ──

var ErrTaskNotFound = errors.New("任务不存在")

// RoomTaskService 房间任务业务接口
type RoomTaskService interface {
	Create(ctx context.Context, roomID string, req *dto.CreateTaskRequest, callerID string) (*model.RoomTask, error)
	ListByRoom(ctx context.Context, roomID string) ([]model.RoomTask, error)
	Update(ctx context.Context, id string, req *dto.UpdateTaskRequest, callerID string) (*model.RoomTask, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type roomTaskService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomTaskService 创建 RoomTaskService 实例
func NewRoomTaskService(repo *repository.Repository, logger *zap.Logger) RoomTaskService {
	return &roomTaskService{repo: repo, logger: logger}
}

func (s *roomTaskService) Create(ctx context.Context, roomID string, req *dto.CreateTaskRequest, callerID string) (*model.RoomTask, error) {
	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", roomID), zap.Error(err))
		return nil, err
	}

	task := &model.RoomTask{
		RoomID:       room.RoomID,
		CycleID:      room.CurrentCycleID,
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		SprayProduct: req.SprayProduct,
		FeedProduct:  req.FeedProduct,
		FeedDosage:   req.FeedDosage,
		DayOfCycle:   req.DayOfCycle,
		Priority:     "normal",
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.ScheduledDate != nil && *req.ScheduledDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			return nil, ErrStartDateInvalid
		}
		task.ScheduledDate = &parsed
	}

	if err := s.repo.Task.Create(ctx, task); err != nil {
		s.logger.Error("创建任务失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (s *roomTaskService) ListByRoom(ctx context.Context, roomID string) ([]model.RoomTask, error) {
	if _, err := s.repo.Room.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", roomID), zap.Error(err))
		return nil, err
	}

	tasks, err := s.repo.Task.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("列出任务失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

func (s *roomTaskService) Update(ctx context.Context, id string, req *dto.UpdateTaskRequest, callerID string) (*model.RoomTask, error) {
	task, err := s.repo.Task.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.SprayProduct != nil {
		task.SprayProduct = *req.SprayProduct
	}
	if req.FeedProduct != nil {
		task.FeedProduct = *req.FeedProduct
	}
	if req.FeedDosage != nil {
		task.FeedDosage = *req.FeedDosage
	}
	if req.DayOfCycle != nil {
		task.DayOfCycle = req.DayOfCycle
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.ScheduledDate != nil && *req.ScheduledDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			return nil, ErrStartDateInvalid
		}
		task.ScheduledDate = &parsed
	}
	if req.Completed != nil && *req.Completed != task.Completed {
		task.Completed = *req.Completed
		if task.Completed {
			now := time.Now()
			task.CompletedAt = &now
			if callerID != "" {
				task.CompletedBy = &callerID
			}
		} else {
			task.CompletedAt = nil
			task.CompletedBy = nil
		}
	}

	if err := s.repo.Task.Update(ctx, task); err != nil {
		s.logger.Error("更新任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (s *roomTaskService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Task.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Task.SoftDelete(ctx, id, callerID); err != nil {
		s.logger.Error("删除任务失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
