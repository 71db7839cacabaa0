package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

// MockRecordRepository is an in-memory replace-all store for one record kind
type MockRecordRepository[T any] struct {
	mu           sync.Mutex
	Records      []*T
	ReplaceError error
	ReplaceCalls int
}

// Verify interface compliance
var (
	_ repository.RecruiterRepository   = (*MockRecordRepository[models.Recruiter])(nil)
	_ repository.CandidateRepository   = (*MockRecordRepository[models.Candidate])(nil)
	_ repository.ClientRepository      = (*MockRecordRepository[models.Client])(nil)
	_ repository.PerformanceRepository = (*MockRecordRepository[models.PerformanceMetric])(nil)
)

func (m *MockRecordRepository[T]) Replace(ctx context.Context, records []*T) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls++
	if m.ReplaceError != nil {
		return 0, m.ReplaceError
	}
	m.Records = append([]*T(nil), records...)
	return len(records), nil
}

func (m *MockRecordRepository[T]) List(ctx context.Context, limit, offset int) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*T{}
	for i, r := range m.Records {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MockRecordRepository[T]) StreamAll(ctx context.Context, callback func(*T) error) error {
	m.mu.Lock()
	records := append([]*T(nil), m.Records...)
	m.mu.Unlock()
	for _, r := range records {
		if err := callback(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockRecordRepository[T]) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records), nil
}

func (m *MockRecordRepository[T]) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = nil
	return nil
}

// MockSourceConfigRepository is a mock implementation of SourceConfigRepository
type MockSourceConfigRepository struct {
	mu         sync.Mutex
	Sources    map[string]*models.SourceConfig
	Touched    map[string]int
	UpsertErr  error
	GetErr     error
	DeleteErr  error
	TouchCalls int
}

var _ repository.SourceConfigRepository = (*MockSourceConfigRepository)(nil)

func NewMockSourceConfigRepository() *MockSourceConfigRepository {
	return &MockSourceConfigRepository{
		Sources: make(map[string]*models.SourceConfig),
		Touched: make(map[string]int),
	}
}

func (m *MockSourceConfigRepository) Upsert(ctx context.Context, cfg *models.SourceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	cfg.UpdatedAt = time.Now()
	stored := *cfg
	m.Sources[cfg.SpreadsheetID] = &stored
	return nil
}

func (m *MockSourceConfigRepository) GetByID(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cfg, ok := m.Sources[spreadsheetID]
	if !ok {
		return nil, nil
	}
	out := *cfg
	return &out, nil
}

func (m *MockSourceConfigRepository) List(ctx context.Context) ([]*models.SourceConfig, error) {
	return m.filter(func(*models.SourceConfig) bool { return true }), nil
}

func (m *MockSourceConfigRepository) ListAutoRefresh(ctx context.Context) ([]*models.SourceConfig, error) {
	return m.filter(func(c *models.SourceConfig) bool { return c.AutoRefresh }), nil
}

func (m *MockSourceConfigRepository) filter(keep func(*models.SourceConfig) bool) []*models.SourceConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.SourceConfig{}
	for _, c := range m.Sources {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpreadsheetID < out[j].SpreadsheetID })
	return out
}

func (m *MockSourceConfigRepository) TouchLastRun(ctx context.Context, spreadsheetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TouchCalls++
	m.Touched[spreadsheetID]++
	if cfg, ok := m.Sources[spreadsheetID]; ok {
		now := time.Now()
		cfg.LastRunAt = &now
	}
	return nil
}

// TouchCount is safe to call while scheduler goroutines are running
func (m *MockSourceConfigRepository) TouchCount(spreadsheetID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Touched[spreadsheetID]
}

func (m *MockSourceConfigRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Sources = make(map[string]*models.SourceConfig)
	return nil
}

// MockImportRunRepository is a mock implementation of ImportRunRepository
type MockImportRunRepository struct {
	mu   sync.Mutex
	Runs map[string]*models.ImportRun
}

var _ repository.ImportRunRepository = (*MockImportRunRepository)(nil)

func NewMockImportRunRepository() *MockImportRunRepository {
	return &MockImportRunRepository{Runs: make(map[string]*models.ImportRun)}
}

func (m *MockImportRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.Runs[run.ID] = &cp
	return nil
}

func (m *MockImportRunRepository) Update(ctx context.Context, run *models.ImportRun) error {
	return m.Create(ctx, run)
}

func (m *MockImportRunRepository) GetByID(ctx context.Context, id string) (*models.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (m *MockImportRunRepository) List(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.ImportRun{}
	for _, r := range m.Runs {
		if spreadsheetID == "" || r.SpreadsheetID == spreadsheetID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockImportRunRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = make(map[string]*models.ImportRun)
	return nil
}

// Repositories bundles the mocks behind a repository.Repositories
type Repositories struct {
	Recruiters  *MockRecordRepository[models.Recruiter]
	Candidates  *MockRecordRepository[models.Candidate]
	Clients     *MockRecordRepository[models.Client]
	Performance *MockRecordRepository[models.PerformanceMetric]
	Sources     *MockSourceConfigRepository
	Runs        *MockImportRunRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Recruiters:  &MockRecordRepository[models.Recruiter]{},
		Candidates:  &MockRecordRepository[models.Candidate]{},
		Clients:     &MockRecordRepository[models.Client]{},
		Performance: &MockRecordRepository[models.PerformanceMetric]{},
		Sources:     NewMockSourceConfigRepository(),
		Runs:        NewMockImportRunRepository(),
	}
}

// Repos returns the aggregate the services consume
func (r *Repositories) Repos() *repository.Repositories {
	return &repository.Repositories{
		Recruiters:  r.Recruiters,
		Candidates:  r.Candidates,
		Clients:     r.Clients,
		Performance: r.Performance,
		Sources:     r.Sources,
		Runs:        r.Runs,
	}
}
