package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/metrics"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

// Runner performs one import for a source
type Runner interface {
	RunImport(ctx context.Context, src *models.SourceConfig, trigger models.RunTrigger) (*models.ImportResult, error)
}

type schedulerJob struct {
	cancel   context.CancelFunc
	interval time.Duration
}

// Scheduler keeps one recurring import timer per auto-refresh source. It holds no
// durable state: Start rebuilds the timers from the stored configurations.
type Scheduler struct {
	runner  Runner
	sources repository.SourceConfigRepository
	log     zerolog.Logger

	ceiling    int
	window     time.Duration
	floor      time.Duration
	runTimeout time.Duration
	now        func() time.Time

	mu      sync.Mutex
	base    context.Context
	jobs    map[string]*schedulerJob
	history map[string][]time.Time
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler
func NewScheduler(runner Runner, sources repository.SourceConfigRepository, cfg config.SchedulerConfig, log zerolog.Logger) *Scheduler {
	ceiling := cfg.MaxRunsPerMinute
	if ceiling <= 0 {
		ceiling = 20
	}
	floor := cfg.MinInterval
	if floor <= 0 {
		floor = 3 * time.Second
	}

	return &Scheduler{
		runner:     runner,
		sources:    sources,
		log:        log.With().Str("service", "scheduler").Logger(),
		ceiling:    ceiling,
		window:     time.Minute,
		floor:      floor,
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
		base:       context.Background(),
		jobs:       make(map[string]*schedulerJob),
		history:    make(map[string][]time.Time),
	}
}

// Start arms a job for every stored source with auto-refresh enabled. Jobs stop when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	sources, err := s.sources.ListAutoRefresh(ctx)
	if err != nil {
		return err
	}
	for _, src := range sources {
		s.Save(src)
	}

	s.log.Info().Int("jobs", len(sources)).Msg("Scheduler started")
	return nil
}

// Save brings the scheduler in line with src: an auto-refresh source gets a fresh job
// (one immediate run, then every interval); any other source is stopped.
func (s *Scheduler) Save(src *models.SourceConfig) {
	if !src.AutoRefresh {
		s.Stop(src.SpreadsheetID)
		return
	}

	cfg := *src
	interval := cfg.RefreshInterval(s.floor)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[cfg.SpreadsheetID]; ok {
		old.cancel()
	}

	ctx, cancel := context.WithCancel(s.base)
	s.jobs[cfg.SpreadsheetID] = &schedulerJob{cancel: cancel, interval: interval}
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))

	s.wg.Add(1)
	go s.loop(ctx, &cfg, interval)

	s.log.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Dur("interval", interval).
		Msg("Refresh job armed")
}

// Stop clears the job and rate-limit history of one source
func (s *Scheduler) Stop(spreadsheetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[spreadsheetID]; ok {
		job.cancel()
		delete(s.jobs, spreadsheetID)
		s.log.Info().Str("spreadsheet_id", spreadsheetID).Msg("Refresh job stopped")
	}
	delete(s.history, spreadsheetID)
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))
}

// StopAll clears every job and all rate-limit history
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		job.cancel()
	}
	s.jobs = make(map[string]*schedulerJob)
	s.history = make(map[string][]time.Time)
	metrics.SchedulerJobs.Set(0)
	s.log.Info().Msg("All refresh jobs stopped")
}

// Shutdown stops every job and waits for in-flight runs to return
func (s *Scheduler) Shutdown() {
	s.StopAll()
	s.wg.Wait()
}

// Active reports whether a job is armed for spreadsheetID
func (s *Scheduler) Active(spreadsheetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[spreadsheetID]
	return ok
}

func (s *Scheduler) loop(ctx context.Context, src *models.SourceConfig, interval time.Duration) {
	defer s.wg.Done()

	s.tick(ctx, src)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, src)
		}
	}
}

// allow records a run for key unless the sliding window already holds ceiling runs.
// It returns the recorded timestamp so an unused slot can be handed back.
func (s *Scheduler) allow(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)
	kept := s.history[key][:0]
	for _, t := range s.history[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= s.ceiling {
		s.history[key] = kept
		return time.Time{}, false
	}
	s.history[key] = append(kept, now)
	return now, true
}

// release gives back the slot recorded at at, for ticks that never reached the orchestrator
func (s *Scheduler) release(key string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[key]
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Equal(at) {
			s.history[key] = append(h[:i], h[i+1:]...)
			return
		}
	}
}

// tick runs one scheduled import. It reports whether the orchestrator was invoked.
func (s *Scheduler) tick(ctx context.Context, src *models.SourceConfig) (ran bool) {
	if ctx.Err() != nil {
		return false
	}

	log := s.log.With().Str("spreadsheet_id", src.SpreadsheetID).Logger()

	slot, ok := s.allow(src.SpreadsheetID)
	if !ok {
		metrics.SchedulerSkips.WithLabelValues("rate_limited").Inc()
		log.Warn().Int("ceiling", s.ceiling).Msg("Run ceiling reached for this minute, skipping tick")
		return false
	}

	// Panic recovery - a broken run must not kill the timer
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Scheduled import panicked - recovered")
			ran = true
		}
	}()

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	_, err := s.runner.RunImport(runCtx, src, models.TriggerScheduled)
	if errors.Is(err, ErrRunInFlight) {
		s.release(src.SpreadsheetID, slot)
		metrics.SchedulerSkips.WithLabelValues("in_flight").Inc()
		log.Warn().Msg("Previous run still in flight, skipping tick")
		return false
	}
	if err != nil {
		log.Error().Err(err).Msg("Scheduled import failed")
	}

	// Stamped whether or not the run succeeded
	if err := s.sources.TouchLastRun(context.WithoutCancel(ctx), src.SpreadsheetID); err != nil {
		log.Error().Err(err).Msg("Failed to stamp last run")
	}
	return true
}
