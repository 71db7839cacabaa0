package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

const sourceSelect = `
	SELECT spreadsheet_id, credential, api_key, ranges, auto_refresh,
		refresh_interval_minutes, trust_tab_kinds, last_run_at, created_at, updated_at
	FROM source_configs
`

// sourceConfigRepo is the concrete implementation of SourceConfigRepository
type sourceConfigRepo struct {
	db *database.DB
}

// NewSourceConfigRepo creates a new source configuration repository
func NewSourceConfigRepo(db *database.DB) SourceConfigRepository {
	return &sourceConfigRepo{db: db}
}

// Upsert inserts or replaces a source configuration by spreadsheet id
func (r *sourceConfigRepo) Upsert(ctx context.Context, cfg *models.SourceConfig) error {
	ranges, err := json.Marshal(cfg.Ranges)
	if err != nil {
		return fmt.Errorf("failed to encode ranges: %w", err)
	}

	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	query := `
		INSERT INTO source_configs (spreadsheet_id, credential, api_key, ranges, auto_refresh,
			refresh_interval_minutes, trust_tab_kinds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (spreadsheet_id) DO UPDATE SET
			credential = EXCLUDED.credential,
			api_key = EXCLUDED.api_key,
			ranges = EXCLUDED.ranges,
			auto_refresh = EXCLUDED.auto_refresh,
			refresh_interval_minutes = EXCLUDED.refresh_interval_minutes,
			trust_tab_kinds = EXCLUDED.trust_tab_kinds,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		cfg.SpreadsheetID, nullString(cfg.Credential), nullString(cfg.APIKey), ranges,
		cfg.AutoRefresh, cfg.RefreshIntervalMinutes, cfg.TrustTabKinds,
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*models.SourceConfig, error) {
	var cfg models.SourceConfig
	var credential, apiKey sql.NullString
	var ranges []byte
	var lastRunAt sql.NullTime

	err := row.Scan(
		&cfg.SpreadsheetID, &credential, &apiKey, &ranges, &cfg.AutoRefresh,
		&cfg.RefreshIntervalMinutes, &cfg.TrustTabKinds, &lastRunAt, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.Credential = credential.String
	cfg.APIKey = apiKey.String
	if len(ranges) > 0 {
		if err := json.Unmarshal(ranges, &cfg.Ranges); err != nil {
			return nil, fmt.Errorf("corrupt ranges for %s: %w", cfg.SpreadsheetID, err)
		}
	}
	if lastRunAt.Valid {
		cfg.LastRunAt = &lastRunAt.Time
	}
	return &cfg, nil
}

// GetByID retrieves a source by spreadsheet id
func (r *sourceConfigRepo) GetByID(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error) {
	cfg, err := scanSource(r.db.QueryRowContext(ctx, sourceSelect+" WHERE spreadsheet_id = $1", spreadsheetID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// List returns every configured source
func (r *sourceConfigRepo) List(ctx context.Context) ([]*models.SourceConfig, error) {
	return r.query(ctx, sourceSelect+" ORDER BY created_at")
}

// ListAutoRefresh returns the sources the scheduler should run
func (r *sourceConfigRepo) ListAutoRefresh(ctx context.Context) ([]*models.SourceConfig, error) {
	return r.query(ctx, sourceSelect+" WHERE auto_refresh = TRUE ORDER BY created_at")
}

func (r *sourceConfigRepo) query(ctx context.Context, query string) ([]*models.SourceConfig, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []*models.SourceConfig{}
	for rows.Next() {
		cfg, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, cfg)
	}
	return sources, rows.Err()
}

// TouchLastRun stamps the source's last run time with now
func (r *sourceConfigRepo) TouchLastRun(ctx context.Context, spreadsheetID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE source_configs SET last_run_at = $1 WHERE spreadsheet_id = $2",
		time.Now().UTC(), spreadsheetID,
	)
	return err
}

// DeleteAll removes every source configuration
func (r *sourceConfigRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "source_configs")
}
