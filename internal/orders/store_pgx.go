package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salescrm/orders-backend/internal/domain"
)

type PostgresStore struct{ DB *pgxpool.Pool }

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Insert(ctx context.Context, o Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, client_id, salesperson_id, status, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.ClientID, o.SalespersonID, string(o.Status), o.TotalCents, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return storageErr("insert order", err)
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	var status string
	err := s.DB.QueryRow(ctx, `SELECT id, client_id, salesperson_id, status, total_cents, created_at, updated_at
	                           FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ClientID, &o.SalespersonID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return Order{}, storageErr("get order", err)
	}
	o.Status = Status(status)

	rows, err := s.DB.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1 ORDER BY position`, id)
	if err != nil {
		return Order{}, storageErr("get items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			return Order{}, storageErr("scan item", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, storageErr("get items", err)
	}
	return o, nil
}

func (s *PostgresStore) Update(ctx context.Context, o Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET client_id=$2, status=$3, total_cents=$4, updated_at=$5
		WHERE id=$1`,
		o.ID, o.ClientID, string(o.Status), o.TotalCents, o.UpdatedAt)
	if err != nil {
		return storageErr("update order", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return storageErr("clear items", err)
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return storageErr("delete order", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListBySalesperson(ctx context.Context, salespersonID string) ([]Order, error) {
	return s.list(ctx, `SELECT id, client_id, salesperson_id, status, total_cents, created_at, updated_at
	                    FROM orders WHERE salesperson_id=$1 ORDER BY created_at DESC`, salespersonID)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, salespersonID string, status Status) ([]Order, error) {
	return s.list(ctx, `SELECT id, client_id, salesperson_id, status, total_cents, created_at, updated_at
	                    FROM orders WHERE salesperson_id=$1 AND status=$2 ORDER BY created_at DESC`,
		salespersonID, string(status))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	var out []Order
	ids := []string{}
	idx := map[string]int{}
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.ClientID, &o.SalespersonID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, storageErr("scan order", err)
		}
		o.Status = Status(status)
		idx[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list orders", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	itemRows, err := s.DB.Query(ctx, `SELECT order_id, product_id, qty FROM order_items
	                                  WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID string
		var it LineItem
		if err := itemRows.Scan(&orderID, &it.ProductID, &it.Qty); err != nil {
			return nil, storageErr("scan item", err)
		}
		i := idx[orderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, itemRows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []LineItem) error {
	for pos, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, position, product_id, qty)
			VALUES ($1, $2, $3, $4)`,
			orderID, pos, it.ProductID, it.Qty); err != nil {
			return storageErr("insert item", err)
		}
	}
	return nil
}

// storageErr tags driver failures as retryable so the service's bounded
// retry loop can tell them apart from domain errors.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrRetryableStorage)
}
