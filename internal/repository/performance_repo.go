package repository

import (
	"context"
	"database/sql"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

var performanceColumns = []string{"month", "recruiter_count", "hired_count", "target_count"}

const performanceSelect = `
	SELECT month, recruiter_count, hired_count, target_count
	FROM performance_metrics ORDER BY id
`

type performanceRepo struct {
	db *database.DB
}

// NewPerformanceRepo creates a new performance metric repository
func NewPerformanceRepo(db *database.DB) PerformanceRepository {
	return &performanceRepo{db: db}
}

// Replace deletes every stored metric and inserts the given set in one transaction
func (r *performanceRepo) Replace(ctx context.Context, metrics []*models.PerformanceMetric) (int, error) {
	return replaceAll(ctx, r.db, "performance_metrics", performanceColumns, len(metrics), func(i int) []interface{} {
		m := metrics[i]
		return []interface{}{m.Month, m.RecruiterCount, m.HiredCount, m.TargetCount}
	})
}

func scanPerformance(rows *sql.Rows) (*models.PerformanceMetric, error) {
	var m models.PerformanceMetric
	if err := rows.Scan(&m.Month, &m.RecruiterCount, &m.HiredCount, &m.TargetCount); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *performanceRepo) List(ctx context.Context, limit, offset int) ([]*models.PerformanceMetric, error) {
	metrics := []*models.PerformanceMetric{}
	query, args := page(performanceSelect, limit, offset)
	err := r.stream(ctx, query, args, func(m *models.PerformanceMetric) error {
		metrics = append(metrics, m)
		return nil
	})
	return metrics, err
}

func (r *performanceRepo) StreamAll(ctx context.Context, callback func(*models.PerformanceMetric) error) error {
	return r.stream(ctx, performanceSelect, nil, callback)
}

func (r *performanceRepo) stream(ctx context.Context, query string, args []interface{}, callback func(*models.PerformanceMetric) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanPerformance(rows)
		if err != nil {
			return err
		}
		if err := callback(m); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *performanceRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "performance_metrics")
}

func (r *performanceRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "performance_metrics")
}
