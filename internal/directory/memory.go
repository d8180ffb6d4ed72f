package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/salescrm/orders-backend/internal/domain"
)

// Memory backs tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewMemory() *Memory {
	return &Memory{clients: map[string]Client{}}
}

func (m *Memory) Add(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
}

func (m *Memory) FindClient(_ context.Context, id string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (m *Memory) ListBySalesperson(_ context.Context, salespersonID string) ([]Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Client
	for _, c := range m.clients {
		if c.OwnerSalesperson == salespersonID {
			out = append(out, c)
		}
	}
	return out, nil
}
