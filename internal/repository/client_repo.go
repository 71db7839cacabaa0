package repository

import (
	"context"
	"database/sql"

	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/models"
)

var clientColumns = []string{
	"name", "company", "email", "phone", "industry",
	"total_hired", "avg_days_to_fill", "status", "location", "last_activity",
}

const clientSelect = `
	SELECT name, company, email, phone, industry, total_hired, avg_days_to_fill,
		status, location, last_activity
	FROM clients ORDER BY id
`

type clientRepo struct {
	db *database.DB
}

// NewClientRepo creates a new client repository
func NewClientRepo(db *database.DB) ClientRepository {
	return &clientRepo{db: db}
}

// Replace deletes every stored client and inserts the given set in one transaction
func (r *clientRepo) Replace(ctx context.Context, clients []*models.Client) (int, error) {
	return replaceAll(ctx, r.db, "clients", clientColumns, len(clients), func(i int) []interface{} {
		c := clients[i]
		return []interface{}{
			c.Name, c.Company, c.Email, c.Phone, c.Industry,
			c.TotalHired, c.AvgDaysToFill, c.Status, c.Location, c.LastActivity,
		}
	})
}

func scanClient(rows *sql.Rows) (*models.Client, error) {
	var c models.Client
	err := rows.Scan(
		&c.Name, &c.Company, &c.Email, &c.Phone, &c.Industry,
		&c.TotalHired, &c.AvgDaysToFill, &c.Status, &c.Location, &c.LastActivity,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) List(ctx context.Context, limit, offset int) ([]*models.Client, error) {
	clients := []*models.Client{}
	query, args := page(clientSelect, limit, offset)
	err := r.stream(ctx, query, args, func(c *models.Client) error {
		clients = append(clients, c)
		return nil
	})
	return clients, err
}

func (r *clientRepo) StreamAll(ctx context.Context, callback func(*models.Client) error) error {
	return r.stream(ctx, clientSelect, nil, callback)
}

func (r *clientRepo) stream(ctx context.Context, query string, args []interface{}, callback func(*models.Client) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return err
		}
		if err := callback(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *clientRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "clients")
}

func (r *clientRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.db, "clients")
}
