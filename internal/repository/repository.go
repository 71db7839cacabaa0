package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

// RecruiterRepository defines the data operations for recruiters
type RecruiterRepository interface {
	Replace(ctx context.Context, recruiters []*models.Recruiter) (int, error)
	List(ctx context.Context, limit, offset int) ([]*models.Recruiter, error)
	StreamAll(ctx context.Context, callback func(*models.Recruiter) error) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// CandidateRepository defines the data operations for candidates
type CandidateRepository interface {
	Replace(ctx context.Context, candidates []*models.Candidate) (int, error)
	List(ctx context.Context, limit, offset int) ([]*models.Candidate, error)
	StreamAll(ctx context.Context, callback func(*models.Candidate) error) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// ClientRepository defines the data operations for clients
type ClientRepository interface {
	Replace(ctx context.Context, clients []*models.Client) (int, error)
	List(ctx context.Context, limit, offset int) ([]*models.Client, error)
	StreamAll(ctx context.Context, callback func(*models.Client) error) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// PerformanceRepository defines the data operations for monthly performance metrics
type PerformanceRepository interface {
	Replace(ctx context.Context, metrics []*models.PerformanceMetric) (int, error)
	List(ctx context.Context, limit, offset int) ([]*models.PerformanceMetric, error)
	StreamAll(ctx context.Context, callback func(*models.PerformanceMetric) error) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// SourceConfigRepository stores spreadsheet source configurations
type SourceConfigRepository interface {
	Upsert(ctx context.Context, cfg *models.SourceConfig) error
	GetByID(ctx context.Context, spreadsheetID string) (*models.SourceConfig, error)
	List(ctx context.Context) ([]*models.SourceConfig, error)
	ListAutoRefresh(ctx context.Context) ([]*models.SourceConfig, error)
	TouchLastRun(ctx context.Context, spreadsheetID string) error
	DeleteAll(ctx context.Context) error
}

// ImportRunRepository stores the import run history
type ImportRunRepository interface {
	Create(ctx context.Context, run *models.ImportRun) error
	Update(ctx context.Context, run *models.ImportRun) error
	GetByID(ctx context.Context, id string) (*models.ImportRun, error)
	List(ctx context.Context, spreadsheetID string, limit int) ([]*models.ImportRun, error)
	DeleteAll(ctx context.Context) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Recruiters  RecruiterRepository
	Candidates  CandidateRepository
	Clients     ClientRepository
	Performance PerformanceRepository
	Sources     SourceConfigRepository
	Runs        ImportRunRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Recruiters:  NewRecruiterRepo(db),
		Candidates:  NewCandidateRepo(db),
		Clients:     NewClientRepo(db),
		Performance: NewPerformanceRepo(db),
		Sources:     NewSourceConfigRepo(db),
		Runs:        NewImportRunRepo(db),
	}
}

// replaceAll swaps the whole content of table for n new rows inside one transaction.
// Rows go in through the COPY protocol; any failure leaves the previous rows untouched.
func replaceAll(ctx context.Context, db *database.DB, table string, columns []string, n int, row func(i int) []interface{}) (int, error) {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
		if err != nil {
			return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
				return fmt.Errorf("failed to copy row %d into %s: %w", i, table, err)
			}
		}

		// Flush the COPY buffer
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to flush copy into %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func count(ctx context.Context, db *database.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func deleteAll(ctx context.Context, db *database.DB, table string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

// page appends LIMIT/OFFSET to query. A non-positive limit returns everything.
func page(query string, limit, offset int) (string, []interface{}) {
	if limit <= 0 {
		return query, nil
	}
	if offset < 0 {
		offset = 0
	}
	return strings.TrimSpace(query) + " LIMIT $1 OFFSET $2", []interface{}{limit, offset}
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
