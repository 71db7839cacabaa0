package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

// sourceService is the concrete implementation of SourceService
type sourceService struct {
	repos     *repository.Repositories
	scheduler *Scheduler
	results   cache.ResultCache
	gate      *clearGate
	log       zerolog.Logger
}

func newSourceService(repos *repository.Repositories, scheduler *Scheduler, results cache.ResultCache, gate *clearGate, log zerolog.Logger) *sourceService {
	return &sourceService{
		repos:     repos,
		scheduler: scheduler,
		results:   results,
		gate:      gate,
		log:       log.With().Str("service", "sources").Logger(),
	}
}

// Save upserts the configuration and re-arms (or stops) its refresh job.
// An omitted credential or API key keeps the stored one; blank ranges fall back to the default tab names.
func (s *sourceService) Save(ctx context.Context, req *models.SourceConfigRequest) (*models.SourceConfig, error) {
	id := strings.TrimSpace(req.SpreadsheetID)
	existing, err := s.repos.Sources.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}

	cfg := &models.SourceConfig{
		SpreadsheetID:          id,
		Credential:             strings.TrimSpace(req.Credential),
		APIKey:                 strings.TrimSpace(req.APIKey),
		Ranges:                 withDefaultRanges(req.Ranges),
		AutoRefresh:            req.AutoRefresh,
		RefreshIntervalMinutes: req.RefreshIntervalMinutes,
		TrustTabKinds:          req.TrustTabKinds,
	}
	if existing != nil {
		cfg.CreatedAt = existing.CreatedAt
		cfg.LastRunAt = existing.LastRunAt
		if cfg.Credential == "" {
			cfg.Credential = existing.Credential
		}
		if cfg.APIKey == "" {
			cfg.APIKey = existing.APIKey
		}
	}
	if cfg.AutoRefresh && cfg.RefreshIntervalMinutes < models.MinRefreshIntervalMinutes {
		cfg.RefreshIntervalMinutes = models.MinRefreshIntervalMinutes
	}

	if err := s.repos.Sources.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	s.scheduler.Save(cfg)

	s.log.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Bool("auto_refresh", cfg.AutoRefresh).
		Float64("interval_minutes", cfg.RefreshIntervalMinutes).
		Bool("has_credential", cfg.HasCredential()).
		Bool("has_api_key", cfg.HasAPIKey()).
		Msg("Source saved")

	return cfg, nil
}

func withDefaultRanges(r models.TabRanges) models.TabRanges {
	d := models.DefaultTabRanges()
	if r.Recruiters.IsZero() {
		r.Recruiters = d.Recruiters
	}
	if r.Candidates.IsZero() {
		r.Candidates = d.Candidates
	}
	if r.Clients.IsZero() {
		r.Clients = d.Clients
	}
	if r.Performance.IsZero() {
		r.Performance = d.Performance
	}
	return r
}

// Get returns ErrSourceNotFound for an unknown id
func (s *sourceService) Get(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error) {
	cfg, err := s.repos.Sources.GetByID(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrSourceNotFound
	}
	return cfg, nil
}

func (s *sourceService) List(ctx context.Context) ([]*models.SourceConfig, error) {
	return s.repos.Sources.List(ctx)
}

// ClearAll stops every refresh job first, then wipes configurations, records, run history and the cache.
// Imports still running when it is called discard their results instead of writing them back.
func (s *sourceService) ClearAll(ctx context.Context) error {
	s.scheduler.StopAll()

	var errs []error
	s.gate.clear(func() {
		for name, del := range map[string]func(context.Context) error{
			"sources":     s.repos.Sources.DeleteAll,
			"recruiters":  s.repos.Recruiters.DeleteAll,
			"candidates":  s.repos.Candidates.DeleteAll,
			"clients":     s.repos.Clients.DeleteAll,
			"performance": s.repos.Performance.DeleteAll,
			"runs":        s.repos.Runs.DeleteAll,
		} {
			if err := del(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to clear %s: %w", name, err))
			}
		}
		if err := s.results.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear cache: %w", err))
		}
	})

	if err := errors.Join(errs...); err != nil {
		s.log.Error().Err(err).Msg("Bulk clear incomplete")
		return err
	}
	s.log.Warn().Msg("All sources and records cleared")
	return nil
}
