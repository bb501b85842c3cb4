package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"bloomtrack/backend/internal/model"
	"bloomtrack/backend/internal/repository"
)

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms     map[string]*model.FlowerRoom
	idCounter int
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.FlowerRoom)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.FlowerRoom) error {
	if room.RoomID == "" {
		m.idCounter++
		room.RoomID = fmt.Sprintf("room-%d", m.idCounter)
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.FlowerRoom, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByNumber(_ context.Context, number int) (*model.FlowerRoom, error) {
	for _, r := range m.rooms {
		if r.RoomNumber == number {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context) ([]model.FlowerRoom, error) {
	var result []model.FlowerRoom
	for _, r := range m.rooms {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoomNumber < result[j].RoomNumber })
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.FlowerRoom) error {
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.rooms)), nil
}

// ── Mock HarvestSessionRepository ──

type mockHarvestSessionRepo struct {
	sessions  map[string]*model.HarvestSession
	plants    map[string]*model.HarvestPlant
	idCounter int
}

func newMockHarvestSessionRepo() *mockHarvestSessionRepo {
	return &mockHarvestSessionRepo{
		sessions: make(map[string]*model.HarvestSession),
		plants:   make(map[string]*model.HarvestPlant),
	}
}

func (m *mockHarvestSessionRepo) attachPlants(s *model.HarvestSession) *model.HarvestSession {
	cp := *s
	cp.Plants = nil
	for _, p := range m.plants {
		if p.SessionID == s.SessionID {
			cp.Plants = append(cp.Plants, *p)
		}
	}
	sort.Slice(cp.Plants, func(i, j int) bool { return cp.Plants[i].PlantNumber < cp.Plants[j].PlantNumber })
	return &cp
}

func (m *mockHarvestSessionRepo) Create(_ context.Context, session *model.HarvestSession) error {
	if session.SessionID == "" {
		m.idCounter++
		session.SessionID = fmt.Sprintf("sess-%d", m.idCounter)
	}
	m.sessions[session.SessionID] = session
	return nil
}

func (m *mockHarvestSessionRepo) GetByID(_ context.Context, id string) (*model.HarvestSession, error) {
	if s, ok := m.sessions[id]; ok {
		return m.attachPlants(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHarvestSessionRepo) GetActiveByRoom(_ context.Context, roomID string) (*model.HarvestSession, error) {
	for _, s := range m.sessions {
		if s.RoomID == roomID && s.Status == model.SessionStatusInProgress {
			return m.attachPlants(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHarvestSessionRepo) List(_ context.Context, status string) ([]model.HarvestSession, error) {
	var result []model.HarvestSession
	for _, s := range m.sessions {
		if status != "" && s.Status != status {
			continue
		}
		result = append(result, *m.attachPlants(s))
	}
	return result, nil
}

func (m *mockHarvestSessionRepo) ListAll(_ context.Context) ([]model.HarvestSession, error) {
	return m.List(context.Background(), "")
}

func (m *mockHarvestSessionRepo) Update(_ context.Context, session *model.HarvestSession) error {
	if _, ok := m.sessions[session.SessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *session
	cp.Plants = nil
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockHarvestSessionRepo) AddPlant(_ context.Context, plant *model.HarvestPlant) error {
	if plant.PlantID == "" {
		m.idCounter++
		plant.PlantID = fmt.Sprintf("plant-%d", m.idCounter)
	}
	m.plants[plant.PlantID] = plant
	return nil
}

func (m *mockHarvestSessionRepo) GetPlant(_ context.Context, plantID string) (*model.HarvestPlant, error) {
	if p, ok := m.plants[plantID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHarvestSessionRepo) ListPlants(_ context.Context, sessionID string) ([]model.HarvestPlant, error) {
	var result []model.HarvestPlant
	for _, p := range m.plants {
		if p.SessionID == sessionID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PlantNumber < result[j].PlantNumber })
	return result, nil
}

func (m *mockHarvestSessionRepo) PlantExists(_ context.Context, sessionID string, plantNumber int) (bool, error) {
	for _, p := range m.plants {
		if p.SessionID == sessionID && p.PlantNumber == plantNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHarvestSessionRepo) UpdatePlant(_ context.Context, plant *model.HarvestPlant) error {
	if _, ok := m.plants[plant.PlantID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.plants[plant.PlantID] = plant
	return nil
}

func (m *mockHarvestSessionRepo) DeletePlant(_ context.Context, plantID string) error {
	delete(m.plants, plantID)
	return nil
}

// ── Mock CycleArchiveRepository ──

type mockCycleArchiveRepo struct {
	archives  map[string]*model.CycleArchive
	idCounter int
}

func newMockCycleArchiveRepo() *mockCycleArchiveRepo {
	return &mockCycleArchiveRepo{archives: make(map[string]*model.CycleArchive)}
}

func (m *mockCycleArchiveRepo) Create(_ context.Context, archive *model.CycleArchive) error {
	if archive.ArchiveID == "" {
		m.idCounter++
		archive.ArchiveID = fmt.Sprintf("arch-%d", m.idCounter)
	}
	m.archives[archive.ArchiveID] = archive
	return nil
}

func (m *mockCycleArchiveRepo) GetByID(_ context.Context, id string) (*model.CycleArchive, error) {
	if a, ok := m.archives[id]; ok && !a.DeletedAt.Valid {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleArchiveRepo) GetByIDUnscoped(_ context.Context, id string) (*model.CycleArchive, error) {
	if a, ok := m.archives[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleArchiveRepo) List(_ context.Context, filter repository.ArchiveFilter) ([]model.CycleArchive, error) {
	var result []model.CycleArchive
	for _, a := range m.archives {
		if a.DeletedAt.Valid {
			continue
		}
		if filter.RoomID != "" && a.RoomID != filter.RoomID {
			continue
		}
		if filter.Strain != "" && !strings.EqualFold(a.Strain, filter.Strain) {
			continue
		}
		if filter.Year != 0 && a.StartDate.Year() != filter.Year {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].HarvestDate.After(result[j].HarvestDate) })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockCycleArchiveRepo) ListDeleted(_ context.Context) ([]model.CycleArchive, error) {
	var result []model.CycleArchive
	for _, a := range m.archives {
		if a.DeletedAt.Valid {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockCycleArchiveRepo) ListAll(_ context.Context) ([]model.CycleArchive, error) {
	return m.List(context.Background(), repository.ArchiveFilter{})
}

func (m *mockCycleArchiveRepo) Update(_ context.Context, archive *model.CycleArchive) error {
	if _, ok := m.archives[archive.ArchiveID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.archives[archive.ArchiveID] = archive
	return nil
}

func (m *mockCycleArchiveRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	a, ok := m.archives[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	a.DeletedBy = &deletedBy
	return nil
}

func (m *mockCycleArchiveRepo) Restore(_ context.Context, id string) error {
	a, ok := m.archives[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.DeletedAt = gorm.DeletedAt{}
	a.DeletedBy = nil
	return nil
}

func (m *mockCycleArchiveRepo) ExistsForCycle(_ context.Context, roomID string, startDate time.Time) (bool, error) {
	for _, a := range m.archives {
		if !a.DeletedAt.Valid && a.RoomID == roomID && a.StartDate.Equal(startDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCycleArchiveRepo) GetByCycle(_ context.Context, roomID string, startDate time.Time) (*model.CycleArchive, error) {
	for _, a := range m.archives {
		if !a.DeletedAt.Valid && a.RoomID == roomID && a.StartDate.Equal(startDate) {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TrimLogRepository ──

type mockTrimLogRepo struct {
	logs      map[string]*model.TrimLog
	idCounter int
}

func newMockTrimLogRepo() *mockTrimLogRepo {
	return &mockTrimLogRepo{logs: make(map[string]*model.TrimLog)}
}

func (m *mockTrimLogRepo) Create(_ context.Context, log *model.TrimLog) error {
	if log.TrimLogID == "" {
		m.idCounter++
		log.TrimLogID = fmt.Sprintf("trim-%d", m.idCounter)
	}
	m.logs[log.TrimLogID] = log
	return nil
}

func (m *mockTrimLogRepo) GetByID(_ context.Context, id string) (*model.TrimLog, error) {
	if l, ok := m.logs[id]; ok && !l.DeletedAt.Valid {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTrimLogRepo) GetByIDUnscoped(_ context.Context, id string) (*model.TrimLog, error) {
	if l, ok := m.logs[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTrimLogRepo) ListByArchive(_ context.Context, archiveID string) ([]model.TrimLog, error) {
	var result []model.TrimLog
	for _, l := range m.logs {
		if !l.DeletedAt.Valid && l.ArchiveID == archiveID {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockTrimLogRepo) ListBetween(_ context.Context, from, to time.Time) ([]model.TrimLog, error) {
	var result []model.TrimLog
	for _, l := range m.logs {
		if !l.DeletedAt.Valid && !l.Date.Before(from) && !l.Date.After(to) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockTrimLogRepo) ListAll(_ context.Context) ([]model.TrimLog, error) {
	var result []model.TrimLog
	for _, l := range m.logs {
		if !l.DeletedAt.Valid {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockTrimLogRepo) Update(_ context.Context, log *model.TrimLog) error {
	if _, ok := m.logs[log.TrimLogID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.logs[log.TrimLogID] = log
	return nil
}

func (m *mockTrimLogRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	l, ok := m.logs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	l.DeletedBy = &deletedBy
	return nil
}

func (m *mockTrimLogRepo) Restore(_ context.Context, id string) error {
	l, ok := m.logs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.DeletedAt = gorm.DeletedAt{}
	l.DeletedBy = nil
	return nil
}

func (m *mockTrimLogRepo) SumByArchive(_ context.Context, archiveID string) (float64, error) {
	total := 0.0
	for _, l := range m.logs {
		if !l.DeletedAt.Valid && l.ArchiveID == archiveID {
			total += l.Weight
		}
	}
	return total, nil
}

// ── Mock StrainRepository ──

type mockStrainRepo struct {
	strains   map[string]*model.Strain
	idCounter int
}

func newMockStrainRepo() *mockStrainRepo {
	return &mockStrainRepo{strains: make(map[string]*model.Strain)}
}

func (m *mockStrainRepo) Create(_ context.Context, strain *model.Strain) error {
	if strain.StrainID == "" {
		m.idCounter++
		strain.StrainID = fmt.Sprintf("strain-%d", m.idCounter)
	}
	m.strains[strain.StrainID] = strain
	return nil
}

func (m *mockStrainRepo) GetByID(_ context.Context, id string) (*model.Strain, error) {
	if s, ok := m.strains[id]; ok && !s.DeletedAt.Valid {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStrainRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Strain, error) {
	if s, ok := m.strains[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStrainRepo) List(_ context.Context) ([]model.Strain, error) {
	var result []model.Strain
	for _, s := range m.strains {
		if !s.DeletedAt.Valid {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockStrainRepo) ListUnscoped(_ context.Context) ([]model.Strain, error) {
	var result []model.Strain
	for _, s := range m.strains {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockStrainRepo) ListDeletedSince(_ context.Context, since time.Time) ([]model.Strain, error) {
	var result []model.Strain
	for _, s := range m.strains {
		if s.DeletedAt.Valid && s.DeletedAt.Time.After(since) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStrainRepo) Update(_ context.Context, strain *model.Strain) error {
	if _, ok := m.strains[strain.StrainID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.strains[strain.StrainID] = strain
	return nil
}

func (m *mockStrainRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	s, ok := m.strains[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.DeletedBy = &deletedBy
	return nil
}

func (m *mockStrainRepo) Restore(_ context.Context, id string) error {
	s, ok := m.strains[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.DeletedAt = gorm.DeletedAt{}
	s.DeletedBy = nil
	return nil
}

// ── Mock VegBatchRepository ──

type mockVegBatchRepo struct {
	batches   map[string]*model.VegBatch
	idCounter int
}

func newMockVegBatchRepo() *mockVegBatchRepo {
	return &mockVegBatchRepo{batches: make(map[string]*model.VegBatch)}
}

func (m *mockVegBatchRepo) Create(_ context.Context, batch *model.VegBatch) error {
	if batch.VegBatchID == "" {
		m.idCounter++
		batch.VegBatchID = fmt.Sprintf("veg-%d", m.idCounter)
	}
	m.batches[batch.VegBatchID] = batch
	return nil
}

func (m *mockVegBatchRepo) GetByID(_ context.Context, id string) (*model.VegBatch, error) {
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVegBatchRepo) List(_ context.Context, activeOnly bool) ([]model.VegBatch, error) {
	var result []model.VegBatch
	for _, b := range m.batches {
		if activeOnly && b.TransplantedToFlowerAt != nil {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockVegBatchRepo) GetLatestByFlowerRoom(_ context.Context, roomID string) (*model.VegBatch, error) {
	var latest *model.VegBatch
	for _, b := range m.batches {
		if b.FlowerRoomID == nil || *b.FlowerRoomID != roomID || b.TransplantedToFlowerAt == nil {
			continue
		}
		if latest == nil || b.TransplantedToFlowerAt.After(*latest.TransplantedToFlowerAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockVegBatchRepo) Update(_ context.Context, batch *model.VegBatch) error {
	if _, ok := m.batches[batch.VegBatchID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.batches[batch.VegBatchID] = batch
	return nil
}

func (m *mockVegBatchRepo) Delete(_ context.Context, id string) error {
	delete(m.batches, id)
	return nil
}

// ── Mock CloneCutRepository ──

type mockCloneCutRepo struct {
	cuts      map[string]*model.CloneCut
	idCounter int
}

func newMockCloneCutRepo() *mockCloneCutRepo {
	return &mockCloneCutRepo{cuts: make(map[string]*model.CloneCut)}
}

func (m *mockCloneCutRepo) Upsert(_ context.Context, cut *model.CloneCut) error {
	if cut.RoomID != nil {
		for _, existing := range m.cuts {
			if existing.RoomID != nil && *existing.RoomID == *cut.RoomID {
				cut.CloneCutID = existing.CloneCutID
				m.cuts[cut.CloneCutID] = cut
				return nil
			}
		}
	}
	if cut.CloneCutID == "" {
		m.idCounter++
		cut.CloneCutID = fmt.Sprintf("cut-%d", m.idCounter)
	}
	m.cuts[cut.CloneCutID] = cut
	return nil
}

func (m *mockCloneCutRepo) GetByID(_ context.Context, id string) (*model.CloneCut, error) {
	if c, ok := m.cuts[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCloneCutRepo) GetByRoom(_ context.Context, roomID string) (*model.CloneCut, error) {
	for _, c := range m.cuts {
		if c.RoomID != nil && *c.RoomID == roomID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCloneCutRepo) List(_ context.Context) ([]model.CloneCut, error) {
	var result []model.CloneCut
	for _, c := range m.cuts {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCloneCutRepo) Update(_ context.Context, cut *model.CloneCut) error {
	if _, ok := m.cuts[cut.CloneCutID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.cuts[cut.CloneCutID] = cut
	return nil
}

func (m *mockCloneCutRepo) Delete(_ context.Context, id string) error {
	delete(m.cuts, id)
	return nil
}

// ── Mock RoomTaskRepository ──

type mockRoomTaskRepo struct {
	tasks     map[string]*model.RoomTask
	idCounter int
}

func newMockRoomTaskRepo() *mockRoomTaskRepo {
	return &mockRoomTaskRepo{tasks: make(map[string]*model.RoomTask)}
}

func (m *mockRoomTaskRepo) Create(_ context.Context, task *model.RoomTask) error {
	if task.TaskID == "" {
		m.idCounter++
		task.TaskID = fmt.Sprintf("task-%d", m.idCounter)
	}
	m.tasks[task.TaskID] = task
	return nil
}

func (m *mockRoomTaskRepo) GetByID(_ context.Context, id string) (*model.RoomTask, error) {
	if t, ok := m.tasks[id]; ok && !t.DeletedAt.Valid {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomTaskRepo) ListByRoom(_ context.Context, roomID string) ([]model.RoomTask, error) {
	var result []model.RoomTask
	for _, t := range m.tasks {
		if !t.DeletedAt.Valid && t.RoomID == roomID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockRoomTaskRepo) ListCompletedByCycle(_ context.Context, roomID, cycleID string) ([]model.RoomTask, error) {
	var result []model.RoomTask
	for _, t := range m.tasks {
		if !t.DeletedAt.Valid && t.RoomID == roomID && t.Completed &&
			t.CycleID != nil && *t.CycleID == cycleID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockRoomTaskRepo) Update(_ context.Context, task *model.RoomTask) error {
	if _, ok := m.tasks[task.TaskID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.tasks[task.TaskID] = task
	return nil
}

func (m *mockRoomTaskRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	t, ok := m.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	t.DeletedBy = &deletedBy
	return nil
}

func (m *mockRoomTaskRepo) SoftDeleteByCycle(_ context.Context, roomID, cycleID string) error {
	for _, t := range m.tasks {
		if t.RoomID == roomID && t.CycleID != nil && *t.CycleID == cycleID {
			t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

func (m *mockRoomTaskRepo) SoftDeleteByRoom(_ context.Context, roomID string) error {
	for _, t := range m.tasks {
		if t.RoomID == roomID {
			t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

// ── Mock RoomLogRepository ──

type mockRoomLogRepo struct {
	logs      []model.RoomLog
	idCounter int
}

func newMockRoomLogRepo() *mockRoomLogRepo {
	return &mockRoomLogRepo{}
}

func (m *mockRoomLogRepo) Create(_ context.Context, log *model.RoomLog) error {
	m.idCounter++
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%d", m.idCounter)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockRoomLogRepo) ListByRoom(_ context.Context, roomID string, limit int) ([]model.RoomLog, error) {
	var result []model.RoomLog
	for _, l := range m.logs {
		if l.RoomID == roomID {
			result = append(result, l)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRoomLogRepo) ListByCycle(_ context.Context, roomID, cycleID string) ([]model.RoomLog, error) {
	var result []model.RoomLog
	for _, l := range m.logs {
		if l.RoomID == roomID && l.CycleID != nil && *l.CycleID == cycleID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockRoomLogRepo) ListByCycleAndType(_ context.Context, roomID, cycleID, logType string) ([]model.RoomLog, error) {
	var result []model.RoomLog
	for _, l := range m.logs {
		if l.RoomID == roomID && l.CycleID != nil && *l.CycleID == cycleID && l.Type == logType {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, filter repository.AuditFilter) ([]model.AuditLog, error) {
	var result []model.AuditLog
	for _, l := range m.logs {
		if filter.UserID != "" && (l.UserID == nil || *l.UserID != filter.UserID) {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}

// ── 聚合构造 ──

// newMockRepository 以字面量构造聚合，db 为 nil，BeginTx 返回 nil 事务
func newMockRepository() *repository.Repository {
	return &repository.Repository{
		Room:    newMockRoomRepo(),
		Session: newMockHarvestSessionRepo(),
		Archive: newMockCycleArchiveRepo(),
		Trim:    newMockTrimLogRepo(),
		Strain:  newMockStrainRepo(),
		Veg:     newMockVegBatchRepo(),
		Clone:   newMockCloneCutRepo(),
		Task:    newMockRoomTaskRepo(),
		RoomLog: newMockRoomLogRepo(),
		Audit:   newMockAuditLogRepo(),
	}
}
