package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/salescrm/orders-backend/internal/domain"
)

// Memory is an in-process catalog and ledger. It serializes stock mutations
// with one mutex per product, so contention on product A never blocks
// product B. Used by tests and local runs without Postgres.
type Memory struct {
	mu       sync.RWMutex // guards the map itself
	products map[string]*memProduct
}

type memProduct struct {
	mu sync.Mutex
	p  Product
}

var _ Ledger = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{products: map[string]*memProduct{}}
}

func (m *Memory) Add(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &memProduct{p: p}
}

func (m *Memory) FindProduct(_ context.Context, id string) (Product, error) {
	mp, err := m.lookup(id)
	if err != nil {
		return Product{}, err
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, mp := range m.products {
		mp.mu.Lock()
		out = append(out, mp.p)
		mp.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Reserve(_ context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("reserve qty %d: %w", qty, domain.ErrInvalidArgument)
	}
	mp, err := m.lookup(productID)
	if err != nil {
		return 0, err
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.p.Stock < qty {
		return 0, &domain.InsufficientStockError{
			ProductID:   mp.p.ID,
			ProductName: mp.p.Name,
			Requested:   qty,
			Available:   mp.p.Stock,
		}
	}
	mp.p.Stock -= qty
	return mp.p.Stock, nil
}

func (m *Memory) Release(_ context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("release qty %d: %w", qty, domain.ErrInvalidArgument)
	}
	mp, err := m.lookup(productID)
	if err != nil {
		return 0, err
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.p.Stock += qty
	return mp.p.Stock, nil
}

func (m *Memory) Adjust(_ context.Context, productID string, delta int) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("adjust delta 0: %w", domain.ErrInvalidArgument)
	}
	mp, err := m.lookup(productID)
	if err != nil {
		return 0, err
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.p.Stock+delta < 0 {
		return 0, &domain.InsufficientStockError{
			ProductID:   mp.p.ID,
			ProductName: mp.p.Name,
			Requested:   -delta,
			Available:   mp.p.Stock,
		}
	}
	mp.p.Stock += delta
	return mp.p.Stock, nil
}

func (m *Memory) lookup(id string) (*memProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return mp, nil
}
