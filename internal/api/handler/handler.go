package handler

import "bloomtrack/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Room        *RoomHandler
	Harvest     *HarvestHandler
	Archive     *ArchiveHandler
	Trim        *TrimHandler
	Strain      *StrainHandler
	Propagation *PropagationHandler
	Audit       *AuditHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Room:        NewRoomHandler(svc.Room, svc.Task),
		Harvest:     NewHarvestHandler(svc.Harvest),
		Archive:     NewArchiveHandler(svc.Archive, svc.Export),
		Trim:        NewTrimHandler(svc.Trim),
		Strain:      NewStrainHandler(svc.Strain),
		Propagation: NewPropagationHandler(svc.Propagation),
		Audit:       NewAuditHandler(svc.Audit),
	}
}
