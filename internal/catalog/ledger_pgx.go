package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salescrm/orders-backend/internal/domain"
)

// PostgresLedger serializes stock mutations through single-row conditional
// updates: the WHERE clause carries the availability check, so the database
// decides and applies in one step. No read-modify-write window exists.
type PostgresLedger struct{ DB *pgxpool.Pool }

var _ Ledger = (*PostgresLedger)(nil)

func (l *PostgresLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("reserve qty %d: %w", qty, domain.ErrInvalidArgument)
	}
	var left int
	err := l.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, productID, qty).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, l.shortfall(ctx, productID, qty)
	}
	if err != nil {
		return 0, fmt.Errorf("reserve product %s: %w", productID, err)
	}
	return left, nil
}

func (l *PostgresLedger) Release(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("release qty %d: %w", qty, domain.ErrInvalidArgument)
	}
	var left int
	err := l.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock`, productID, qty).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("release product %s: %w", productID, err)
	}
	return left, nil
}

func (l *PostgresLedger) Adjust(ctx context.Context, productID string, delta int) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("adjust delta 0: %w", domain.ErrInvalidArgument)
	}
	var left int
	err := l.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`, productID, delta).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, l.shortfall(ctx, productID, -delta)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust product %s: %w", productID, err)
	}
	return left, nil
}

// shortfall distinguishes a missing product from an availability failure
// after a conditional update matched no row.
func (l *PostgresLedger) shortfall(ctx context.Context, productID string, requested int) error {
	var name string
	var stock int
	err := l.DB.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, productID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Requested:   requested,
		Available:   stock,
	}
}
