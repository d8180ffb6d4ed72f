package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salescrm/orders-backend/internal/domain"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) FindClient(ctx context.Context, id string) (Client, error) {
	var c Client
	err := r.DB.QueryRow(ctx, `SELECT id, first_name, last_name, company, email, phone, owner_salesperson, created_at
	                           FROM clients WHERE id=$1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Company, &c.Email, &c.Phone, &c.OwnerSalesperson, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func (r *Repo) ListBySalesperson(ctx context.Context, salespersonID string) ([]Client, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, first_name, last_name, company, email, phone, owner_salesperson, created_at
	                              FROM clients WHERE owner_salesperson=$1 ORDER BY last_name, first_name`, salespersonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Company, &c.Email, &c.Phone, &c.OwnerSalesperson, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
