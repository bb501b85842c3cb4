package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bloomtrack/backend/internal/dto"
	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
	"bloomtrack/backend/pkg/metrics"
)

// ── 品种模块业务错误 ──

var (
	ErrStrainNotFound     = errors.New("品种不存在")
	ErrStrainExists       = errors.New("同名品种已存在")
	ErrStrainNotDeleted   = errors.New("品种未被删除，无法恢复")
	ErrMergeTargetInvalid = errors.New("合并目标必须包含在待合并品种中")
)

// StrainService 品种库业务接口
type StrainService interface {
	List(ctx context.Context) ([]model.Strain, error)
	Create(ctx context.Context, req *dto.CreateStrainRequest, callerID string) (*model.Strain, error)
	Update(ctx context.Context, id string, req *dto.UpdateStrainRequest, callerID string) (*model.Strain, error)
	Delete(ctx context.Context, id string, callerID string) error
	ListDeleted(ctx context.Context) ([]model.Strain, error)
	Restore(ctx context.Context, id string, callerID string) (*model.Strain, error)
	RestoreRecent(ctx context.Context, within time.Duration, callerID string) ([]model.Strain, error)
	Merge(ctx context.Context, req *dto.MergeStrainsRequest, callerID string) (*dto.MergeStrainsResponse, error)
}

type strainService struct {
	repo    *repository.Repository
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewStrainService 创建 StrainService 实例
func NewStrainService(repo *repository.Repository, audit AuditService, m *metrics.Metrics, logger *zap.Logger) StrainService {
	return &strainService{repo: repo, audit: audit, metrics: m, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *strainService) List(ctx context.Context) ([]model.Strain, error) {
	strains, err := s.repo.Strain.List(ctx)
	if err != nil {
		s.logger.Error("列出品种失败", zap.Error(err))
		return nil, err
	}
	return strains, nil
}

// ────────────────────── Create ──────────────────────

// Create 创建品种。存在同名（规范化比较）的已删除品种时恢复该条目，
// 存在同名有效品种时返回冲突。
func (s *strainService) Create(ctx context.Context, req *dto.CreateStrainRequest, callerID string) (*model.Strain, error) {
	name := strings.TrimSpace(req.Name)
	normalized := model.NormalizeStrainName(name)

	all, err := s.repo.Strain.ListUnscoped(ctx)
	if err != nil {
		s.logger.Error("查询品种失败", zap.Error(err))
		return nil, err
	}
	for i := range all {
		if model.NormalizeStrainName(all[i].Name) != normalized {
			continue
		}
		if !all[i].DeletedAt.Valid {
			return nil, ErrStrainExists
		}
		// 同名已删除条目：恢复而不是重建，保留历史关联
		if err := s.repo.Strain.Restore(ctx, all[i].StrainID); err != nil {
			s.logger.Error("恢复品种失败", zap.String("id", all[i].StrainID), zap.Error(err))
			return nil, err
		}
		all[i].DeletedAt = gorm.DeletedAt{}
		all[i].DeletedBy = nil
		s.audit.Record(ctx, callerID, "strain.restore", "strain", all[i].StrainID, nil)
		return &all[i], nil
	}

	strain := &model.Strain{Name: name}
	if err := s.repo.Strain.Create(ctx, strain); err != nil {
		s.logger.Error("创建品种失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return strain, nil
}

// ────────────────────── Update ──────────────────────

func (s *strainService) Update(ctx context.Context, id string, req *dto.UpdateStrainRequest, callerID string) (*model.Strain, error) {
	strain, err := s.repo.Strain.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStrainNotFound
		}
		s.logger.Error("查询品种失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	normalized := model.NormalizeStrainName(name)

	existing, err := s.repo.Strain.List(ctx)
	if err != nil {
		s.logger.Error("查询品种失败", zap.Error(err))
		return nil, err
	}
	for i := range existing {
		if existing[i].StrainID != id && model.NormalizeStrainName(existing[i].Name) == normalized {
			return nil, ErrStrainExists
		}
	}

	strain.Name = name
	if err := s.repo.Strain.Update(ctx, strain); err != nil {
		s.logger.Error("更新品种失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return strain, nil
}

// ────────────────────── Delete / Restore / RestoreRecent ──────────────────────

func (s *strainService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Strain.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStrainNotFound
		}
		s.logger.Error("查询品种失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Strain.SoftDelete(ctx, id, callerID); err != nil {
		s.logger.Error("删除品种失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, callerID, "strain.delete", "strain", id, nil)
	return nil
}

func (s *strainService) ListDeleted(ctx context.Context) ([]model.Strain, error) {
	deleted, err := s.repo.Strain.ListDeletedSince(ctx, time.Time{})
	if err != nil {
		s.logger.Error("查询已删除品种失败", zap.Error(err))
		return nil, err
	}
	return deleted, nil
}

func (s *strainService) Restore(ctx context.Context, id string, callerID string) (*model.Strain, error) {
	strain, err := s.repo.Strain.GetByIDUnscoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStrainNotFound
		}
		s.logger.Error("查询品种失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !strain.DeletedAt.Valid {
		return nil, ErrStrainNotDeleted
	}

	if err := s.repo.Strain.Restore(ctx, id); err != nil {
		s.logger.Error("恢复品种失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	strain.DeletedAt = gorm.DeletedAt{}
	strain.DeletedBy = nil

	s.audit.Record(ctx, callerID, "strain.restore", "strain", id, nil)
	return strain, nil
}

// RestoreRecent 批量恢复最近误删的品种
func (s *strainService) RestoreRecent(ctx context.Context, within time.Duration, callerID string) ([]model.Strain, error) {
	if within <= 0 {
		within = 24 * time.Hour
	}
	deleted, err := s.repo.Strain.ListDeletedSince(ctx, time.Now().Add(-within))
	if err != nil {
		s.logger.Error("查询已删除品种失败", zap.Error(err))
		return nil, err
	}

	restored := make([]model.Strain, 0, len(deleted))
	for i := range deleted {
		if err := s.repo.Strain.Restore(ctx, deleted[i].StrainID); err != nil {
			s.logger.Error("恢复品种失败", zap.String("id", deleted[i].StrainID), zap.Error(err))
			return nil, err
		}
		deleted[i].DeletedAt = gorm.DeletedAt{}
		deleted[i].DeletedBy = nil
		restored = append(restored, deleted[i])
	}

	s.audit.Record(ctx, callerID, "strain.restore_recent", "strain", "", map[string]interface{}{
		"count": len(restored),
	})
	return restored, nil
}

// ────────────────────── Merge ──────────────────────

// Merge 将多个品种合并为目标品种：目标条目原样保留，其余来源品种在
// 房间、收获会话、归档、育苗、克隆、修剪日志中的引用全部改写为目标
// 名称（规范化比较），派生标签仅在列表项变化时重建，最后软删除来源。
func (s *strainService) Merge(ctx context.Context, req *dto.MergeStrainsRequest, callerID string) (*dto.MergeStrainsResponse, error) {
	targetInList := false
	for _, id := range req.StrainIDs {
		if id == req.TargetID {
			targetInList = true
			break
		}
	}
	if !targetInList {
		return nil, ErrMergeTargetInvalid
	}

	target, err := s.repo.Strain.GetByID(ctx, req.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStrainNotFound
		}
		s.logger.Error("查询目标品种失败", zap.String("id", req.TargetID), zap.Error(err))
		return nil, err
	}

	sources := make([]*model.Strain, 0, len(req.StrainIDs)-1)
	sourceNames := make(map[string]bool)
	for _, id := range req.StrainIDs {
		if id == req.TargetID {
			continue
		}
		strain, err := s.repo.Strain.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStrainNotFound
			}
			s.logger.Error("查询品种失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		sources = append(sources, strain)
		sourceNames[model.NormalizeStrainName(strain.Name)] = true
	}

	counts := map[string]int{
		"flower_rooms":     0,
		"harvest_sessions": 0,
		"cycle_archives":   0,
		"veg_batches":      0,
		"clone_cuts":       0,
		"trim_logs":        0,
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	rollback := func(err error) (*dto.MergeStrainsResponse, error) {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	// 开花房：改写品种分配，标签随列表重建
	rooms, err := txRepo.Room.List(ctx)
	if err != nil {
		return rollback(err)
	}
	for i := range rooms {
		room := &rooms[i]
		changed := false
		if len(room.FlowerStrains) > 0 {
			names := room.FlowerStrains.Names()
			newNames, listChanged := renameStrainList(names, sourceNames, target.Name)
			if listChanged {
				room.FlowerStrains = mergeAllocations(room.FlowerStrains, sourceNames, target.Name)
				room.Strain = strings.Join(newNames, " / ")
				changed = true
			}
		} else if sourceNames[model.NormalizeStrainName(room.Strain)] {
			room.Strain = target.Name
			changed = true
		}
		if changed {
			if err := txRepo.Room.Update(ctx, room); err != nil {
				return rollback(err)
			}
			counts["flower_rooms"]++
		}
	}

	// 收获会话与逐株记录
	sessions, err := txRepo.Session.ListAll(ctx)
	if err != nil {
		return rollback(err)
	}
	for i := range sessions {
		session := &sessions[i]
		changed := false
		if newLabel, labelChanged := renameStrainLabel(session.Strain, " / ", sourceNames, target.Name); labelChanged {
			session.Strain = newLabel
			changed = true
		}
		for j := range session.Plants {
			if sourceNames[model.NormalizeStrainName(session.Plants[j].Strain)] {
				session.Plants[j].Strain = target.Name
				if err := txRepo.Session.UpdatePlant(ctx, &session.Plants[j]); err != nil {
					return rollback(err)
				}
				changed = true
			}
		}
		if changed {
			if err := txRepo.Session.Update(ctx, session); err != nil {
				return rollback(err)
			}
			counts["harvest_sessions"]++
		}
	}

	// 周期归档：strains 列表、strain_data 明细，标签随列表重建
	archives, err := txRepo.Archive.ListAll(ctx)
	if err != nil {
		return rollback(err)
	}
	for i := range archives {
		archive := &archives[i]
		changed := false
		if len(archive.Strains) > 0 {
			newList, listChanged := renameStrainList(archive.Strains, sourceNames, target.Name)
			if listChanged {
				archive.Strains = newList
				archive.Strain = strings.Join(newList, " / ")
				changed = true
			}
		} else if newLabel, labelChanged := renameStrainLabel(archive.Strain, " / ", sourceNames, target.Name); labelChanged {
			archive.Strain = newLabel
			changed = true
		}
		if yields, yieldsChanged := mergeStrainYields(archive.StrainData, sourceNames, target.Name); yieldsChanged {
			archive.StrainData = yields
			changed = true
		}
		if changed {
			if err := txRepo.Archive.Update(ctx, archive); err != nil {
				return rollback(err)
			}
			counts["cycle_archives"]++
		}
	}

	// 育苗批次
	batches, err := txRepo.Veg.List(ctx, false)
	if err != nil {
		return rollback(err)
	}
	for i := range batches {
		batch := &batches[i]
		changed := false
		if len(batch.Strains) > 0 {
			newList, listChanged := renameStrainList(batch.Strains, sourceNames, target.Name)
			if listChanged {
				batch.Strains = newList
				batch.Strain = strings.Join(newList, ", ")
				changed = true
			}
		} else if sourceNames[model.NormalizeStrainName(batch.Strain)] {
			batch.Strain = target.Name
			changed = true
		}
		if changed {
			if err := txRepo.Veg.Update(ctx, batch); err != nil {
				return rollback(err)
			}
			counts["veg_batches"]++
		}
	}

	// 克隆剪切批次
	cuts, err := txRepo.Clone.List(ctx)
	if err != nil {
		return rollback(err)
	}
	for i := range cuts {
		cut := &cuts[i]
		changed := false
		if len(cut.Strains) > 0 {
			newList, listChanged := renameStrainList(cut.Strains, sourceNames, target.Name)
			if listChanged {
				cut.Strains = newList
				cut.Strain = strings.Join(newList, ", ")
				changed = true
			}
		} else if sourceNames[model.NormalizeStrainName(cut.Strain)] {
			cut.Strain = target.Name
			changed = true
		}
		if changed {
			if err := txRepo.Clone.Update(ctx, cut); err != nil {
				return rollback(err)
			}
			counts["clone_cuts"]++
		}
	}

	// 修剪日志
	trimLogs, err := txRepo.Trim.ListAll(ctx)
	if err != nil {
		return rollback(err)
	}
	for i := range trimLogs {
		log := &trimLogs[i]
		if newLabel, labelChanged := renameStrainLabel(log.Strain, " / ", sourceNames, target.Name); labelChanged {
			log.Strain = newLabel
			if err := txRepo.Trim.Update(ctx, log); err != nil {
				return rollback(err)
			}
			counts["trim_logs"]++
		}
	}

	// 软删除来源品种，目标条目保持不变
	mergedNames := make([]string, 0, len(sources))
	for _, src := range sources {
		if err := txRepo.Strain.SoftDelete(ctx, src.StrainID, callerID); err != nil {
			return rollback(err)
		}
		mergedNames = append(mergedNames, src.Name)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.StrainsMerged.Inc()
	}
	s.audit.Record(ctx, callerID, "strain.merge", "strain", target.StrainID, map[string]interface{}{
		"merged":  mergedNames,
		"target":  target.Name,
		"updated": counts,
	})
	s.logger.Info("品种合并完成",
		zap.String("target", target.Name),
		zap.Strings("merged", mergedNames),
	)

	return &dto.MergeStrainsResponse{
		TargetID:         target.StrainID,
		TargetName:       target.Name,
		MergedStrains:    mergedNames,
		PreservedStrains: []string{target.Name},
		UpdatedCounts:    counts,
	}, nil
}

// ── 内部辅助方法 ──

// renameStrainList 将列表中命中来源的名称替换为目标名并按规范化去重。
// 返回新列表与是否发生变化。
func renameStrainList(list []string, sources map[string]bool, target string) (model.StringList, bool) {
	changed := false
	seen := make(map[string]bool, len(list))
	result := make(model.StringList, 0, len(list))
	for _, name := range list {
		out := name
		if sources[model.NormalizeStrainName(name)] {
			out = target
			changed = true
		}
		key := model.NormalizeStrainName(out)
		if seen[key] {
			changed = true
			continue
		}
		seen[key] = true
		result = append(result, out)
	}
	return result, changed
}

// renameStrainLabel 对以 sep 连接的标签做逐项替换与去重
func renameStrainLabel(label, sep string, sources map[string]bool, target string) (string, bool) {
	if label == "" {
		return label, false
	}
	parts := strings.Split(label, sep)
	newParts, changed := renameStrainList(parts, sources, target)
	if !changed {
		return label, false
	}
	return strings.Join(newParts, sep), true
}

// mergeAllocations 改写品种分配并合并命中同一目标的株数
func mergeAllocations(allocs model.StrainAllocations, sources map[string]bool, target string) model.StrainAllocations {
	order := make([]string, 0, len(allocs))
	byKey := make(map[string]*model.StrainAllocation)
	for _, a := range allocs {
		name := a.Name
		if sources[model.NormalizeStrainName(name)] {
			name = target
		}
		key := model.NormalizeStrainName(name)
		entry, ok := byKey[key]
		if !ok {
			entry = &model.StrainAllocation{Name: name}
			byKey[key] = entry
			order = append(order, key)
		}
		entry.PlantsCount += a.PlantsCount
	}
	result := make(model.StrainAllocations, 0, len(order))
	for _, key := range order {
		result = append(result, *byKey[key])
	}
	return result
}

// mergeStrainYields 改写收获明细并合并命中同一目标的数量与重量
func mergeStrainYields(yields model.StrainYields, sources map[string]bool, target string) (model.StrainYields, bool) {
	changed := false
	order := make([]string, 0, len(yields))
	byKey := make(map[string]*model.StrainYield)
	for _, y := range yields {
		name := y.Name
		if sources[model.NormalizeStrainName(name)] {
			name = target
			changed = true
		}
		key := model.NormalizeStrainName(name)
		entry, ok := byKey[key]
		if !ok {
			entry = &model.StrainYield{Name: name}
			byKey[key] = entry
			order = append(order, key)
		} else {
			changed = true
		}
		entry.PlantsCount += y.PlantsCount
		entry.WetWeight += y.WetWeight
	}
	if !changed {
		return yields, false
	}
	result := make(model.StrainYields, 0, len(order))
	for _, key := range order {
		result = append(result, *byKey[key])
	}
	return result, true
}
