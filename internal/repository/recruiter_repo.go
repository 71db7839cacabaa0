package repository

import (
	"context"
	"database/sql"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

var recruiterColumns = []string{
	"name", "email", "phone", "department", "territory",
	"hired_count", "join_date", "status", "trend", "location",
}

const recruiterSelect = `
	SELECT name, email, phone, department, territory, hired_count, join_date, status, trend, location
	FROM recruiters ORDER BY id
`

// recruiterRepo is the concrete implementation of RecruiterRepository
type recruiterRepo struct {
	db *database.DB
}

// NewRecruiterRepo creates a new recruiter repository
func NewRecruiterRepo(db *database.DB) RecruiterRepository {
	return &recruiterRepo{db: db}
}

// Replace deletes every stored recruiter and inserts the given set in one transaction
func (r *recruiterRepo) Replace(ctx context.Context, recruiters []*models.Recruiter) (int, error) {
	return replaceAll(ctx, r.db, "recruiters", recruiterColumns, len(recruiters), func(i int) []interface{} {
		rec := recruiters[i]
		return []interface{}{
			rec.Name, rec.Email, rec.Phone, rec.Department, rec.Territory,
			rec.HiredCount, rec.JoinDate, rec.Status, rec.Trend, rec.Location,
		}
	})
}

func scanRecruiter(rows *sql.Rows) (*models.Recruiter, error) {
	var rec models.Recruiter
	err := rows.Scan(
		&rec.Name, &rec.Email, &rec.Phone, &rec.Department, &rec.Territory,
		&rec.HiredCount, &rec.JoinDate, &rec.Status, &rec.Trend, &rec.Location,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns recruiters in sheet order
func (r *recruiterRepo) List(ctx context.Context, limit, offset int) ([]*models.Recruiter, error) {
	recruiters := []*models.Recruiter{}
	query, args := page(recruiterSelect, limit, offset)
	err := r.stream(ctx, query, args, func(rec *models.Recruiter) error {
		recruiters = append(recruiters, rec)
		return nil
	})
	return recruiters, err
}

// StreamAll streams all recruiters for export
func (r *recruiterRepo) StreamAll(ctx context.Context, callback func(*models.Recruiter) error) error {
	return r.stream(ctx, recruiterSelect, nil, callback)
}

func (r *recruiterRepo) stream(ctx context.Context, query string, args []interface{}, callback func(*models.Recruiter) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecruiter(rows)
		if err != nil {
			return err
		}
		if err := callback(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the total number of recruiters
func (r *recruiterRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "recruiters")
}

// DeleteAll removes every recruiter
func (r *recruiterRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "recruiters")
}
