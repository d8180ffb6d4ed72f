package orders

import "context"

// Store is durable order storage. Implementations must keep an order and its
// line items consistent as a unit.
type Store interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
	ListBySalesperson(ctx context.Context, salespersonID string) ([]Order, error)
	ListByStatus(ctx context.Context, salespersonID string, status Status) ([]Order, error)
}
