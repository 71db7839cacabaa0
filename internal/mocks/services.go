package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
	"github.com/recruitops-api/internal/tabular"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	mu         sync.Mutex
	ImportFunc func(ctx context.Context, spreadsheetID string, trigger models.RunTrigger) (*models.ImportResult, error)
	Runs       map[string]*models.ImportRun
	Imported   []string
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{Runs: make(map[string]*models.ImportRun)}
}

func (m *MockImportService) RunImport(ctx context.Context, src *models.SourceConfig, trigger models.RunTrigger) (*models.ImportResult, error) {
	return m.Import(ctx, src.SpreadsheetID, trigger)
}

func (m *MockImportService) Import(ctx context.Context, spreadsheetID string, trigger models.RunTrigger) (*models.ImportResult, error) {
	m.mu.Lock()
	m.Imported = append(m.Imported, spreadsheetID)
	m.mu.Unlock()
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, spreadsheetID, trigger)
	}
	return &models.ImportResult{RunID: "run-1", SpreadsheetID: spreadsheetID}, nil
}

func (m *MockImportService) GetRun(ctx context.Context, id string) (*models.ImportRun, error) {
	return m.Runs[id], nil
}

func (m *MockImportService) ListRuns(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error) {
	out := []*models.ImportRun{}
	for _, r := range m.Runs {
		if spreadsheetID == "" || r.SpreadsheetID == spreadsheetID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockSourceService is a mock implementation of SourceService
type MockSourceService struct {
	Sources    map[string]*models.SourceConfig
	SaveErr    error
	ClearErr   error
	ClearCalls int
}

var _ service.SourceService = (*MockSourceService)(nil)

func NewMockSourceService() *MockSourceService {
	return &MockSourceService{Sources: make(map[string]*models.SourceConfig)}
}

func (m *MockSourceService) Save(ctx context.Context, req *models.SourceConfigRequest) (*models.SourceConfig, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	cfg := &models.SourceConfig{
		SpreadsheetID:          req.SpreadsheetID,
		Credential:             req.Credential,
		APIKey:                 req.APIKey,
		Ranges:                 req.Ranges,
		AutoRefresh:            req.AutoRefresh,
		RefreshIntervalMinutes: req.RefreshIntervalMinutes,
		TrustTabKinds:          req.TrustTabKinds,
	}
	m.Sources[cfg.SpreadsheetID] = cfg
	return cfg, nil
}

func (m *MockSourceService) Get(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error) {
	cfg, ok := m.Sources[spreadsheetID]
	if !ok {
		return nil, service.ErrSourceNotFound
	}
	return cfg, nil
}

func (m *MockSourceService) List(ctx context.Context) ([]*models.SourceConfig, error) {
	out := []*models.SourceConfig{}
	for _, c := range m.Sources {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockSourceService) ClearAll(ctx context.Context) error {
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Sources = make(map[string]*models.SourceConfig)
	return nil
}

// MockRecordService is a mock implementation of RecordService
type MockRecordService struct {
	Records map[models.EntityKind]interface{}
	Counts  models.Stats
}

var _ service.RecordService = (*MockRecordService)(nil)

func NewMockRecordService() *MockRecordService {
	return &MockRecordService{Records: make(map[models.EntityKind]interface{})}
}

func (m *MockRecordService) List(ctx context.Context, kind models.EntityKind, limit, offset int) (interface{}, error) {
	if r, ok := m.Records[kind]; ok {
		return r, nil
	}
	return []interface{}{}, nil
}

func (m *MockRecordService) Stats(ctx context.Context) (*models.Stats, error) {
	stats := m.Counts
	return &stats, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	Data      string
	StreamErr error
	Calls     []string
}

var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{Data: "[]"}
}

func (m *MockExportService) Stream(ctx context.Context, w io.Writer, kind models.EntityKind, format string) error {
	m.Calls = append(m.Calls, string(kind)+"."+format)
	if m.StreamErr != nil {
		return m.StreamErr
	}
	_, err := io.WriteString(w, m.Data)
	return err
}

func (m *MockExportService) ContentType(format string) string {
	if format == "csv" {
		return "text/csv"
	}
	return "application/json"
}

// TabResponse is what MockTabFetcher answers for one range
type TabResponse struct {
	Values   [][]string
	Err      error
	Strategy string
}

// MockTabFetcher serves canned tabs keyed by range
type MockTabFetcher struct {
	mu    sync.Mutex
	Tabs  map[string]TabResponse
	Calls []string
}

var _ service.TabFetcher = (*MockTabFetcher)(nil)

func NewMockTabFetcher() *MockTabFetcher {
	return &MockTabFetcher{Tabs: make(map[string]TabResponse)}
}

func (m *MockTabFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*sheets.Fetched, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, tab.Range)
	resp, ok := m.Tabs[tab.Range]
	m.mu.Unlock()

	if !ok {
		return nil, sheets.ErrNotConfigured
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	strategy := resp.Strategy
	if strategy == "" {
		strategy = sheets.StrategyAPIKey
	}
	return &sheets.Fetched{Table: tabular.FromValues(resp.Values), Strategy: strategy}, nil
}
