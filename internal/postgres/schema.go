package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// One statement per entry: pgx's extended protocol does not allow
// multi-statement strings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		stock       INT NOT NULL CHECK (stock >= 0),
		price_cents BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id                UUID PRIMARY KEY,
		first_name        TEXT NOT NULL,
		last_name         TEXT NOT NULL,
		company           TEXT NOT NULL,
		email             TEXT NOT NULL UNIQUE,
		phone             TEXT NOT NULL DEFAULT '',
		owner_salesperson UUID NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS clients_owner_idx ON clients (owner_salesperson)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             UUID PRIMARY KEY,
		client_id      UUID NOT NULL,
		salesperson_id UUID NOT NULL,
		status         TEXT NOT NULL,
		total_cents    BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_salesperson_idx ON orders (salesperson_id)`,
	`CREATE INDEX IF NOT EXISTS orders_salesperson_status_idx ON orders (salesperson_id, status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id   UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position   INT NOT NULL,
		product_id UUID NOT NULL,
		qty        INT NOT NULL CHECK (qty > 0),
		PRIMARY KEY (order_id, position)
	)`,
}

// Migrate creates the tables if they do not exist yet. The DDL is idempotent
// so every binary can run it at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
