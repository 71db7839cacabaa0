package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

var candidateColumns = []string{
	"name", "email", "phone", "position", "experience", "skills",
	"status", "salary", "recruiter", "client", "applied_date", "location",
}

const candidateSelect = `
	SELECT name, email, phone, position, experience, skills, status, salary,
		recruiter, client, applied_date, location
	FROM candidates ORDER BY id
`

// candidateRepo is the concrete implementation of CandidateRepository
type candidateRepo struct {
	db *database.DB
}

// NewCandidateRepo creates a new candidate repository
func NewCandidateRepo(db *database.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

// Replace deletes every stored candidate and inserts the given set in one transaction
func (r *candidateRepo) Replace(ctx context.Context, candidates []*models.Candidate) (int, error) {
	return replaceAll(ctx, r.db, "candidates", candidateColumns, len(candidates), func(i int) []interface{} {
		c := candidates[i]
		skills := c.Skills
		if skills == nil {
			skills = []string{}
		}
		return []interface{}{
			c.Name, c.Email, c.Phone, c.Position, c.Experience, pq.Array(skills),
			c.Status, c.Salary, c.Recruiter, c.Client, c.AppliedDate, c.Location,
		}
	})
}

func scanCandidate(rows *sql.Rows) (*models.Candidate, error) {
	var c models.Candidate
	err := rows.Scan(
		&c.Name, &c.Email, &c.Phone, &c.Position, &c.Experience, pq.Array(&c.Skills),
		&c.Status, &c.Salary, &c.Recruiter, &c.Client, &c.AppliedDate, &c.Location,
	)
	if err != nil {
		return nil, err
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	return &c, nil
}

// List returns candidates in sheet order
func (r *candidateRepo) List(ctx context.Context, limit, offset int) ([]*models.Candidate, error) {
	candidates := []*models.Candidate{}
	query, args := page(candidateSelect, limit, offset)
	err := r.stream(ctx, query, args, func(c *models.Candidate) error {
		candidates = append(candidates, c)
		return nil
	})
	return candidates, err
}

// StreamAll streams all candidates for export
func (r *candidateRepo) StreamAll(ctx context.Context, callback func(*models.Candidate) error) error {
	return r.stream(ctx, candidateSelect, nil, callback)
}

func (r *candidateRepo) stream(ctx context.Context, query string, args []interface{}, callback func(*models.Candidate) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return err
		}
		if err := callback(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the total number of candidates
func (r *candidateRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "candidates")
}

// DeleteAll removes every candidate
func (r *candidateRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "candidates")
}
