package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/salescrm/orders-backend/internal/catalog"
	"github.com/salescrm/orders-backend/internal/domain"
)

func seedLedger(stock int) *catalog.Memory {
	m := catalog.NewMemory()
	m.Add(catalog.Product{ID: "p1", Name: "KEYBOARD", Stock: stock, PriceCents: 4500})
	return m
}

func stockOf(t *testing.T, m *catalog.Memory, id string) int {
	t.Helper()
	p, err := m.FindProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(10)

	left, err := m.Reserve(ctx, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, left)

	left, err = m.Release(ctx, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 10, left)
}

func TestReserveInsufficientStock(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(10)

	_, err := m.Reserve(ctx, "p1", 11)
	ise, ok := domain.IsInsufficientStock(err)
	require.True(t, ok, "expected InsufficientStockError, got %v", err)
	assert.Equal(t, "p1", ise.ProductID)
	assert.Equal(t, "KEYBOARD", ise.ProductName)
	assert.Equal(t, 11, ise.Requested)
	assert.Equal(t, 10, ise.Available)

	// the failed reservation must not touch stock
	assert.Equal(t, 10, stockOf(t, m, "p1"))
}

func TestReleaseAccumulates(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(2)

	// no tracked maximum: repeated restores simply add up
	_, err := m.Release(ctx, "p1", 5)
	require.NoError(t, err)
	left, err := m.Release(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 12, left)
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(10)

	left, err := m.Adjust(ctx, "p1", -3)
	require.NoError(t, err)
	assert.Equal(t, 7, left)

	left, err = m.Adjust(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 9, left)

	_, err = m.Adjust(ctx, "p1", -20)
	ise, ok := domain.IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, 9, ise.Available)
	assert.Equal(t, 9, stockOf(t, m, "p1"))
}

func TestUnknownProduct(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(10)

	_, err := m.Reserve(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Release(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Adjust(ctx, "nope", -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvalidQuantities(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(10)

	_, err := m.Reserve(ctx, "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = m.Release(ctx, "p1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = m.Adjust(ctx, "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

// Two concurrent reservations of the full stock: exactly one wins.
func TestConcurrentContention(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(5)

	errs := make([]error, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			_, errs[i] = m.Reserve(ctx, "p1", 5)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		_, ok := domain.IsInsufficientStock(err)
		require.True(t, ok, "loser must fail with insufficient stock, got %v", err)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 0, stockOf(t, m, "p1"))
}

// Hammering one product never drives stock negative and conserves the total.
func TestConcurrentReserveNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(100)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		g.Go(func() error {
			if _, err := m.Reserve(ctx, "p1", 5); err != nil {
				if _, ok := domain.IsInsufficientStock(err); !ok {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 100 / 5 = 20 reservations fit; the other 20 must have failed
	assert.Equal(t, 0, stockOf(t, m, "p1"))
}

func TestOperationsOnDifferentProductsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := seedLedger(5)
	m.Add(catalog.Product{ID: "p2", Name: "MOUSE", Stock: 7})

	var g errgroup.Group
	g.Go(func() error {
		_, err := m.Reserve(ctx, "p1", 5)
		return err
	})
	g.Go(func() error {
		_, err := m.Reserve(ctx, "p2", 7)
		return err
	})
	require.NoError(t, g.Wait())
	assert.Equal(t, 0, stockOf(t, m, "p1"))
	assert.Equal(t, 0, stockOf(t, m, "p2"))
}
