package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/mapping"
	"github.com/recruitops-api/internal/metrics"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
	"github.com/recruitops-api/internal/sheets"
)

// importService is the concrete implementation of ImportService
type importService struct {
	repos   *repository.Repositories
	fetcher TabFetcher
	results cache.ResultCache
	gate    *clearGate
	log     zerolog.Logger

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, fetcher TabFetcher, results cache.ResultCache, gate *clearGate, log zerolog.Logger) *importService {
	return &importService{
		repos:   repos,
		fetcher: fetcher,
		results: results,
		gate:    gate,
		log:     log.With().Str("service", "import").Logger(),
		locks:   make(map[string]chan struct{}),
	}
}

func (s *importService) lockFor(spreadsheetID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[spreadsheetID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[spreadsheetID] = l
	}
	return l
}

// acquire takes the per-source run lock. Scheduled runs never wait for it.
func (s *importService) acquire(ctx context.Context, spreadsheetID string, trigger models.RunTrigger) (func(), error) {
	l := s.lockFor(spreadsheetID)
	release := func() { <-l }

	if trigger == models.TriggerScheduled {
		select {
		case l <- struct{}{}:
			return release, nil
		default:
			return nil, ErrRunInFlight
		}
	}

	select {
	case l <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Import loads the stored configuration for spreadsheetID and runs it
func (s *importService) Import(ctx context.Context, spreadsheetID string, trigger models.RunTrigger) (*models.ImportResult, error) {
	src, err := s.repos.Sources.GetByID(ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	if src == nil {
		return nil, ErrSourceNotFound
	}

	result, err := s.RunImport(ctx, src, trigger)
	if touchErr := s.repos.Sources.TouchLastRun(ctx, spreadsheetID); touchErr != nil {
		s.log.Error().Err(touchErr).Str("spreadsheet_id", spreadsheetID).Msg("Failed to stamp last run")
	}
	return result, err
}

type tabOutcome struct {
	kind    models.EntityKind
	tab     models.TabSpec
	fetched *sheets.Fetched
	err     error
}

// RunImport performs one full import cycle for src: fetch all four tabs, route and map
// them, replace each non-empty kind in the store and cache the result.
func (s *importService) RunImport(ctx context.Context, src *models.SourceConfig, trigger models.RunTrigger) (*models.ImportResult, error) {
	release, err := s.acquire(ctx, src.SpreadsheetID, trigger)
	if err != nil {
		return nil, err
	}
	defer release()

	gen := s.gate.generation()
	startTime := time.Now()
	run := &models.ImportRun{
		ID:            uuid.New().String(),
		SpreadsheetID: src.SpreadsheetID,
		Trigger:       trigger,
		Status:        models.RunStatusRunning,
		StartedAt:     startTime.UTC(),
	}
	s.gate.write(gen, func() {
		if err := s.repos.Runs.Create(ctx, run); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record import run")
		}
	})

	log := s.log.With().Str("run_id", run.ID).Str("spreadsheet_id", src.SpreadsheetID).Logger()
	log.Info().Str("trigger", string(trigger)).Msg("Starting import")

	outcomes := s.fetchAll(ctx, src)

	result := &models.ImportResult{
		RunID:         run.ID,
		SpreadsheetID: src.SpreadsheetID,
		Recruiters:    []*models.Recruiter{},
		Candidates:    []*models.Candidate{},
		Clients:       []*models.Client{},
		Performance:   []*models.PerformanceMetric{},
		FetchedAt:     startTime.UTC(),
	}

	// the whole-document export serves the first sheet for any tab it falls back on
	seen := make(map[uint64]models.EntityKind)

	var fetchErrs []error
	for _, o := range outcomes {
		tr := models.TabResult{Kind: o.kind, Range: o.tab.Range}
		if o.err != nil {
			tr.Status = models.TabStatusFailed
			tr.Error = o.err.Error()
			fetchErrs = append(fetchErrs, fmt.Errorf("%s tab: %w", o.kind, o.err))
			log.Warn().Err(o.err).Str("kind", string(o.kind)).Str("range", o.tab.Range).Msg("Tab failed")
			result.Tabs = append(result.Tabs, tr)
			continue
		}

		tr.Strategy = o.fetched.Strategy
		table := o.fetched.Table
		if table.Len() == 0 {
			tr.Status = models.TabStatusEmpty
			result.Tabs = append(result.Tabs, tr)
			continue
		}

		fp := table.Fingerprint()
		if first, dup := seen[fp]; dup {
			tr.Status = models.TabStatusDuplicate
			tr.Error = fmt.Sprintf("same content as the %s tab", first)
			log.Warn().Str("tab", string(o.kind)).Str("same_as", string(first)).Msg("Tab content identical to an earlier tab, skipping")
			result.Tabs = append(result.Tabs, tr)
			continue
		}
		seen[fp] = o.kind

		target := o.kind
		if !src.TrustTabKinds {
			if inferred := mapping.InferKind(table.Headers); inferred != models.KindUnknown && inferred != o.kind {
				log.Info().
					Str("tab", string(o.kind)).
					Str("inferred", string(inferred)).
					Msg("Tab headers match another kind, rerouting")
				target = inferred
				tr.RoutedTo = inferred
			}
		}

		batch := mapping.MapTable(table, target)
		result.Recruiters = append(result.Recruiters, batch.Recruiters...)
		result.Candidates = append(result.Candidates, batch.Candidates...)
		result.Clients = append(result.Clients, batch.Clients...)
		result.Performance = append(result.Performance, batch.Performance...)

		tr.Status = models.TabStatusOK
		tr.Rows = batch.Len()
		result.Tabs = append(result.Tabs, tr)
	}

	if len(fetchErrs) == len(outcomes) {
		return s.fallback(ctx, gen, run, result, errors.Join(fetchErrs...), startTime, log)
	}

	written := s.gate.write(gen, func() {
		result.Persistence = s.persist(ctx, result, log)
		if err := s.results.Set(ctx, src.SpreadsheetID, result); err != nil {
			log.Error().Err(err).Msg("Failed to cache import result")
		}
	})
	if !written {
		log.Warn().Int("records", result.TotalRecords()).Msg("Store cleared during import, discarding result")
		run.Status = models.RunStatusFailed
		run.Error = ErrRunDiscarded.Error()
		s.finish(ctx, gen, run, result.Tabs, nil, startTime)
		return nil, ErrRunDiscarded
	}

	run.Status = models.RunStatusCompleted
	if result.FailedTabs() > 0 {
		run.Status = models.RunStatusPartial
		run.Error = fmt.Sprintf("%d of %d tabs failed", result.FailedTabs(), len(outcomes))
	}
	for _, p := range result.Persistence {
		if p.Status == models.PersistFailed {
			run.Status = models.RunStatusPartial
			if run.Error == "" {
				run.Error = "persistence failed for " + string(p.Kind)
			}
		}
	}
	run.RecordsImported = result.TotalRecords()
	s.finish(ctx, gen, run, result.Tabs, result.Persistence, startTime)

	log.Info().
		Str("status", string(run.Status)).
		Int("recruiters", len(result.Recruiters)).
		Int("candidates", len(result.Candidates)).
		Int("clients", len(result.Clients)).
		Int("performance", len(result.Performance)).
		Int("failed_tabs", result.FailedTabs()).
		Int64("duration_ms", run.DurationMs).
		Msg("Import completed")

	return result, nil
}

// fetchAll fetches the four tabs concurrently. One tab's failure never cancels the others.
func (s *importService) fetchAll(ctx context.Context, src *models.SourceConfig) []tabOutcome {
	defaults := models.DefaultTabRanges()
	outcomes := make([]tabOutcome, len(models.Kinds))

	var g errgroup.Group
	for i, kind := range models.Kinds {
		tab := src.Ranges.For(kind)
		if tab.IsZero() {
			tab = defaults.For(kind)
		}
		outcomes[i] = tabOutcome{kind: kind, tab: tab}

		i := i
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i].err = fmt.Errorf("tab fetch panicked: %v", r)
				}
			}()
			outcomes[i].fetched, outcomes[i].err = s.fetcher.FetchTab(ctx, src, tab)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// persist replaces each kind that produced records. Empty kinds keep their previous rows.
func (s *importService) persist(ctx context.Context, result *models.ImportResult, log zerolog.Logger) []models.PersistResult {
	out := make([]models.PersistResult, 0, len(models.Kinds))
	for _, kind := range models.Kinds {
		pr := models.PersistResult{Kind: kind}
		n := result.Count(kind)
		if n == 0 {
			pr.Status = models.PersistSkippedEmpty
			out = append(out, pr)
			continue
		}

		var err error
		switch kind {
		case models.KindRecruiter:
			pr.Count, err = s.repos.Recruiters.Replace(ctx, result.Recruiters)
		case models.KindCandidate:
			pr.Count, err = s.repos.Candidates.Replace(ctx, result.Candidates)
		case models.KindClient:
			pr.Count, err = s.repos.Clients.Replace(ctx, result.Clients)
		case models.KindPerformance:
			pr.Count, err = s.repos.Performance.Replace(ctx, result.Performance)
		}

		if err != nil {
			pr.Status = models.PersistFailed
			pr.Error = err.Error()
			metrics.PersistFailures.WithLabelValues(string(kind)).Inc()
			log.Error().Err(err).Str("kind", string(kind)).Int("records", n).Msg("Replace failed, keeping parsed records in memory only")
		} else {
			pr.Status = models.PersistReplaced
			metrics.RecordsImported.WithLabelValues(string(kind)).Add(float64(pr.Count))
		}
		out = append(out, pr)
	}
	return out
}

// fallback answers a run whose every tab failed with the last good result, if any
func (s *importService) fallback(ctx context.Context, gen uint64, run *models.ImportRun, attempt *models.ImportResult, fetchErr error, startTime time.Time, log zerolog.Logger) (*models.ImportResult, error) {
	run.Status = models.RunStatusFailed
	run.Error = fetchErr.Error()
	defer s.finish(ctx, gen, run, attempt.Tabs, nil, startTime)

	cached, err := s.results.Get(ctx, run.SpreadsheetID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read cached result")
	}
	if cached == nil {
		log.Error().Err(fetchErr).Msg("Import failed, no cached result")
		return nil, errors.Join(ErrAllTabsFailed, fetchErr)
	}

	log.Warn().Err(fetchErr).Time("cached_at", cached.FetchedAt).Msg("All tabs failed, serving cached result")
	stale := *cached
	stale.RunID = run.ID
	stale.Tabs = attempt.Tabs
	stale.Persistence = nil
	stale.Stale = true
	return &stale, nil
}

// finish records the outcome. A run whose history was wiped by a clear is not recreated.
func (s *importService) finish(ctx context.Context, gen uint64, run *models.ImportRun, tabs []models.TabResult, persistence []models.PersistResult, startTime time.Time) {
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	run.DurationMs = time.Since(startTime).Milliseconds()
	run.Tabs = tabs
	run.Persistence = persistence

	metrics.ImportRuns.WithLabelValues(string(run.Trigger), string(run.Status)).Inc()
	metrics.ImportDuration.WithLabelValues(string(run.Trigger)).Observe(time.Since(startTime).Seconds())

	s.gate.write(gen, func() {
		if err := s.repos.Runs.Update(ctx, run); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to update import run")
		}
	})
}

// GetRun retrieves a run by ID
func (s *importService) GetRun(ctx context.Context, id string) (*models.ImportRun, error) {
	return s.repos.Runs.GetByID(ctx, id)
}

// ListRuns returns recent runs, newest first
func (s *importService) ListRuns(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error) {
	return s.repos.Runs.List(ctx, spreadsheetID, limit)
}
