package service

import (
	"go.uber.org/zap"

	"bloomtrack/backend/config"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/pkg/metrics"
)

// Service 所有业务 Service 的聚合入口
type Service struct {
	Room        RoomService
	Harvest     HarvestService
	Archive     ArchiveService
	Trim        TrimService
	Strain      StrainService
	Propagation PropagationService
	Task        RoomTaskService
	Export      ExportService
	Audit       AuditService
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Service {
	audit := NewAuditService(repo, logger)
	archive := NewArchiveService(repo, audit, m, logger)

	return &Service{
		Room:        NewRoomService(repo, &cfg.Farm, audit, logger),
		Harvest:     NewHarvestService(repo, &cfg.Farm, archive, audit, m, logger),
		Archive:     archive,
		Trim:        NewTrimService(repo, audit, m, logger),
		Strain:      NewStrainService(repo, audit, m, logger),
		Propagation: NewPropagationService(repo, logger),
		Task:        NewRoomTaskService(repo, logger),
		Export:      NewExportService(repo, logger),
		Audit:       audit,
	}
}
