package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
	"github.com/recruitops-api/internal/sheets"
)

var (
	// ErrAllTabsFailed is returned when no tab could be fetched and no earlier result is cached
	ErrAllTabsFailed = errors.New("all tabs failed to fetch")

	// ErrSourceNotFound is returned for an unknown spreadsheet id
	ErrSourceNotFound = errors.New("source configuration not found")

	// ErrRunInFlight is returned to scheduled runs when the same source is already importing
	ErrRunInFlight = errors.New("import already running for this source")

	// ErrRunDiscarded is returned when a bulk clear happened while the run was fetching
	ErrRunDiscarded = errors.New("store was cleared while the import was running")

	// ErrUnsupportedFormat is returned for an unknown export format
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// clearGate orders bulk clears against the write phase of imports. Every clear
// advances the generation; a run that started under an older generation must not write.
type clearGate struct {
	mu  sync.RWMutex
	gen uint64
}

func (g *clearGate) generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gen
}

// write runs fn under the read side of the gate, unless a clear happened since gen
func (g *clearGate) write(gen uint64, fn func()) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.gen != gen {
		return false
	}
	fn()
	return true
}

// clear runs fn exclusively and starts a new generation
func (g *clearGate) clear(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	fn()
}

// TabFetcher obtains one tab through the strategy chain
type TabFetcher interface {
	FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*sheets.Fetched, error)
}

// ImportService runs imports and exposes their history
type ImportService interface {
	RunImport(ctx context.Context, src *models.SourceConfig, trigger models.RunTrigger) (*models.ImportResult, error)
	Import(ctx context.Context, spreadsheetID string, trigger models.RunTrigger) (*models.ImportResult, error)
	GetRun(ctx context.Context, id string) (*models.ImportRun, error)
	ListRuns(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error)
}

// SourceService manages source configurations and keeps the scheduler in step with them
type SourceService interface {
	Save(ctx context.Context, req *models.SourceConfigRequest) (*models.SourceConfig, error)
	Get(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error)
	List(ctx context.Context) ([]*models.SourceConfig, error)
	ClearAll(ctx context.Context) error
}

// RecordService re-serves stored records
type RecordService interface {
	List(ctx context.Context, kind models.EntityKind, limit, offset int) (interface{}, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	Stream(ctx context.Context, w io.Writer, kind models.EntityKind, format string) error
	ContentType(format string) string
}

// Services holds all service interfaces
type Services struct {
	Import    ImportService
	Sources   SourceService
	Records   RecordService
	Export    ExportService
	Scheduler *Scheduler
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, fetcher TabFetcher, results cache.ResultCache, cfg *config.Config, log zerolog.Logger) *Services {
	gate := &clearGate{}
	importSvc := newImportService(repos, fetcher, results, gate, log)
	scheduler := NewScheduler(importSvc, repos.Sources, cfg.Scheduler, log)

	return &Services{
		Import:    importSvc,
		Sources:   newSourceService(repos, scheduler, results, gate, log),
		Records:   newRecordService(repos),
		Export:    newExportService(repos, log),
		Scheduler: scheduler,
	}
}
