// Package sheets obtains the raw values of one spreadsheet tab. Three strategies
// (service credential, API key, published export) are tried in order by a Chain.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/metrics"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/tabular"
)

var (
	// ErrUnavailable means a strategy declined to run (no credential, failed token
	// exchange, no key). The chain moves on without treating it as a failure.
	ErrUnavailable = errors.New("fetch strategy unavailable")

	// ErrNotConfigured means no strategy could even be attempted
	ErrNotConfigured = errors.New("no credential, api key or published export configured")

	// ErrNoData means every published-export URL failed the tabular sanity check
	ErrNoData = errors.New("published export returned no tabular data")
)

// Strategy names, as reported in tab results and metrics
const (
	StrategyCredential = "credential"
	StrategyAPIKey     = "api_key"
	StrategyExport     = "export"
)

// Fetcher is one way of obtaining a tab's values
type Fetcher interface {
	Name() string
	FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*tabular.Table, error)
}

// Fetched is a tab obtained by the chain
type Fetched struct {
	Table    *tabular.Table
	Strategy string
}

// Chain evaluates fetchers in order and returns the first success
type Chain struct {
	fetchers []Fetcher
	log      zerolog.Logger
}

// NewChain creates a chain over the given fetchers
func NewChain(log zerolog.Logger, fetchers ...Fetcher) *Chain {
	return &Chain{
		fetchers: fetchers,
		log:      log.With().Str("component", "sheets").Logger(),
	}
}

// FetchTab runs the strategies in order. Unavailable strategies are skipped silently;
// real errors are remembered and the next strategy still gets a chance.
func (c *Chain) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*Fetched, error) {
	var errs []error
	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := f.FetchTab(ctx, src, tab)
		if err == nil {
			metrics.TabFetches.WithLabelValues(f.Name(), "ok").Inc()
			return &Fetched{Table: table, Strategy: f.Name()}, nil
		}

		if errors.Is(err, ErrUnavailable) {
			metrics.TabFetches.WithLabelValues(f.Name(), "unavailable").Inc()
			c.log.Debug().Str("strategy", f.Name()).Str("range", tab.Range).Err(err).Msg("Strategy unavailable")
			continue
		}

		metrics.TabFetches.WithLabelValues(f.Name(), "error").Inc()
		c.log.Warn().
			Str("strategy", f.Name()).
			Str("spreadsheet_id", src.SpreadsheetID).
			Str("range", tab.Range).
			Err(err).
			Msg("Tab fetch failed, trying next strategy")
		errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
	}

	if len(errs) == 0 {
		return nil, ErrNotConfigured
	}
	return nil, errors.Join(errs...)
}
