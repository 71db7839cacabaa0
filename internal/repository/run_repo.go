package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

const runSelect = `
	SELECT id, spreadsheet_id, trigger, status, tabs, persistence, records_imported,
		duration_ms, error, started_at, completed_at
	FROM import_runs
`

// importRunRepo is the concrete implementation of ImportRunRepository
type importRunRepo struct {
	db *database.DB
}

// NewImportRunRepo creates a new import run repository
func NewImportRunRepo(db *database.DB) ImportRunRepository {
	return &importRunRepo{db: db}
}

func encodeOutcomes(run *models.ImportRun) ([]byte, []byte, error) {
	tabs := run.Tabs
	if tabs == nil {
		tabs = []models.TabResult{}
	}
	persistence := run.Persistence
	if persistence == nil {
		persistence = []models.PersistResult{}
	}

	tabsJSON, err := json.Marshal(tabs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tabs: %w", err)
	}
	persistenceJSON, err := json.Marshal(persistence)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode persistence: %w", err)
	}
	return tabsJSON, persistenceJSON, nil
}

// Create inserts a new run
func (r *importRunRepo) Create(ctx context.Context, run *models.ImportRun) error {
	tabs, persistence, err := encodeOutcomes(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO import_runs (id, spreadsheet_id, trigger, status, tabs, persistence,
			records_imported, duration_ms, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.SpreadsheetID, run.Trigger, run.Status, tabs, persistence,
		run.RecordsImported, run.DurationMs, nullString(run.Error), run.StartedAt, run.CompletedAt,
	)
	return err
}

// Update records the outcome of a finished run
func (r *importRunRepo) Update(ctx context.Context, run *models.ImportRun) error {
	tabs, persistence, err := encodeOutcomes(run)
	if err != nil {
		return err
	}

	query := `
		UPDATE import_runs SET
			status = $1, tabs = $2, persistence = $3, records_imported = $4,
			duration_ms = $5, error = $6, completed_at = $7
		WHERE id = $8
	`
	_, err = r.db.ExecContext(ctx, query,
		run.Status, tabs, persistence, run.RecordsImported,
		run.DurationMs, nullString(run.Error), run.CompletedAt, run.ID,
	)
	return err
}

func scanRun(row rowScanner) (*models.ImportRun, error) {
	var run models.ImportRun
	var tabs, persistence []byte
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.SpreadsheetID, &run.Trigger, &run.Status, &tabs, &persistence,
		&run.RecordsImported, &run.DurationMs, &errMsg, &run.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tabs) > 0 {
		if err := json.Unmarshal(tabs, &run.Tabs); err != nil {
			return nil, fmt.Errorf("corrupt tabs for run %s: %w", run.ID, err)
		}
	}
	if len(persistence) > 0 {
		if err := json.Unmarshal(persistence, &run.Persistence); err != nil {
			return nil, fmt.Errorf("corrupt persistence for run %s: %w", run.ID, err)
		}
	}
	run.Error = errMsg.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// GetByID retrieves a run by ID
func (r *importRunRepo) GetByID(ctx context.Context, id string) (*models.ImportRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, runSelect+" WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first, optionally for one spreadsheet
func (r *importRunRepo) List(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if spreadsheetID != "" {
		rows, err = r.db.QueryContext(ctx, runSelect+" WHERE spreadsheet_id = $1 ORDER BY started_at DESC LIMIT $2", spreadsheetID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, runSelect+" ORDER BY started_at DESC LIMIT $1", limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*models.ImportRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteAll removes the whole run history
func (r *importRunRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "import_runs")
}
