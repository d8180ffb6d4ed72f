package orders

import (
	"fmt"

	"github.com/salescrm/orders-backend/internal/directory"
	"github.com/salescrm/orders-backend/internal/domain"
)

// Ownership predicates. Pure checks, no side effects.

func AssertOwnsClient(c directory.Client, salespersonID string) error {
	if c.OwnerSalesperson != salespersonID {
		return fmt.Errorf("client %s not owned by salesperson %s: %w", c.ID, salespersonID, domain.ErrPermissionDenied)
	}
	return nil
}

func AssertOwnsOrder(o Order, salespersonID string) error {
	if o.SalespersonID != salespersonID {
		return fmt.Errorf("order %s not owned by salesperson %s: %w", o.ID, salespersonID, domain.ErrPermissionDenied)
	}
	return nil
}
