package catalog

import (
	"context"
	"time"
)

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	PriceCents int       `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Ledger owns every mutation of a product's stock count. Each call is atomic
// with respect to every other call touching the same product; operations on
// different products proceed in parallel.
type Ledger interface {
	// Reserve decrements stock by qty and returns the remaining stock.
	// Fails with InsufficientStockError when qty exceeds what is available.
	Reserve(ctx context.Context, productID string, qty int) (int, error)

	// Release increments stock by qty unconditionally and returns the new
	// stock. There is no tracked maximum, repeated restores accumulate.
	Release(ctx context.Context, productID string, qty int) (int, error)

	// Adjust applies stock += delta when the result stays non-negative and
	// returns the new stock; fails with InsufficientStockError otherwise.
	Adjust(ctx context.Context, productID string, delta int) (int, error)
}
