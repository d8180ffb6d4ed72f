package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/orders-backend/internal/catalog"
	"github.com/salescrm/orders-backend/internal/directory"
	"github.com/salescrm/orders-backend/internal/domain"
)

// ClientDirectory resolves clients and their owning salesperson.
type ClientDirectory interface {
	FindClient(ctx context.Context, id string) (directory.Client, error)
}

const defaultStorageAttempts = 3

// Service orchestrates order create/update/delete: ownership validation,
// stock reservation with compensation, and bounded-retry persistence. Stock
// is never left decremented without a matching persisted order.
type Service struct {
	Directory ClientDirectory
	Ledger    catalog.Ledger
	Store     Store
	Log       *zap.Logger

	// StrictStatusFlow rejects status transitions outside the PENDING ->
	// {COMPLETED, CANCELLED} table. Off by default: the legacy behavior
	// allows any status on update.
	StrictStatusFlow bool

	// StorageAttempts bounds retries of transient store failures.
	StorageAttempts int
}

type CreateInput struct {
	ClientID   string
	Items      []LineItem
	TotalCents int
	Status     string // optional; defaults to PENDING
}

// UpdateInput is a patch: zero values fall back to the stored order.
type UpdateInput struct {
	ClientID   string
	Items      []LineItem
	TotalCents int
	Status     string
}

func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (Order, error) {
	if err := requireActor(actor); err != nil {
		return Order{}, err
	}
	if in.ClientID == "" {
		return Order{}, fmt.Errorf("missing client reference: %w", domain.ErrInvalidArgument)
	}
	if err := validateItems(in.Items); err != nil {
		return Order{}, err
	}
	status := StatusPending
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return Order{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
		}
		status = st
	}

	cl, err := s.Directory.FindClient(ctx, in.ClientID)
	if err != nil {
		return Order{}, err
	}
	if err := AssertOwnsClient(cl, actor); err != nil {
		return Order{}, err
	}

	// Reserve per line item; any failure releases everything reserved so
	// far in this request before the error surfaces.
	reserved := make([]LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		if _, err := s.Ledger.Reserve(ctx, it.ProductID, it.Qty); err != nil {
			s.releaseAll(ctx, reserved)
			return Order{}, err
		}
		reserved = append(reserved, it)
	}

	now := time.Now().UTC()
	o := Order{
		ID:            uuid.NewString(),
		Items:         in.Items,
		TotalCents:    in.TotalCents,
		ClientID:      in.ClientID,
		SalespersonID: actor,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.withRetry(ctx, func(ctx context.Context) error { return s.Store.Insert(ctx, o) }); err != nil {
		s.releaseAll(ctx, reserved)
		return Order{}, err
	}
	return o, nil
}

func (s *Service) Update(ctx context.Context, actor, id string, in UpdateInput) (Order, error) {
	if err := requireActor(actor); err != nil {
		return Order{}, err
	}
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := AssertOwnsOrder(existing, actor); err != nil {
		return Order{}, err
	}

	merged := existing
	if in.ClientID != "" {
		merged.ClientID = in.ClientID
	}
	cl, err := s.Directory.FindClient(ctx, merged.ClientID)
	if err != nil {
		return Order{}, err
	}
	if err := AssertOwnsClient(cl, actor); err != nil {
		return Order{}, err
	}
	if in.TotalCents != 0 {
		merged.TotalCents = in.TotalCents
	}
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return Order{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
		}
		if s.StrictStatusFlow && !CanTransition(existing.Status, st) {
			return Order{}, fmt.Errorf("status transition %s -> %s not allowed: %w",
				existing.Status, st, domain.ErrInvalidArgument)
		}
		merged.Status = st
	}

	var applied []stockDelta
	if len(in.Items) > 0 {
		if err := validateItems(in.Items); err != nil {
			return Order{}, err
		}
		// Reconcile each product named in the new set against its previous
		// quantity: newStock = stock - newQty + prevQty. Products dropped
		// from the set entirely are not restored, matching the legacy
		// behavior this engine replaces.
		prev := existing.qtyByProduct()
		applied, err = s.applyDeltas(ctx, in.Items, prev)
		if err != nil {
			return Order{}, err
		}
		merged.Items = in.Items
	}

	merged.UpdatedAt = time.Now().UTC()
	if err := s.withRetry(ctx, func(ctx context.Context) error { return s.Store.Update(ctx, merged) }); err != nil {
		s.revertDeltas(ctx, applied)
		return Order{}, err
	}
	return merged, nil
}

func (s *Service) Delete(ctx context.Context, actor, id string) (Order, error) {
	if err := requireActor(actor); err != nil {
		return Order{}, err
	}
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := AssertOwnsOrder(o, actor); err != nil {
		return Order{}, err
	}

	// Restore the recorded quantities, then remove the record. If the delete
	// cannot commit, re-reserve what was released so stock is never freed
	// without the deletion.
	released := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		if _, err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			s.reserveBack(ctx, released)
			return Order{}, err
		}
		released = append(released, it)
	}
	if err := s.withRetry(ctx, func(ctx context.Context) error { return s.Store.Delete(ctx, id) }); err != nil {
		s.reserveBack(ctx, released)
		return Order{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor, id string) (Order, error) {
	if err := requireActor(actor); err != nil {
		return Order{}, err
	}
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := AssertOwnsOrder(o, actor); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) ListForSalesperson(ctx context.Context, actor string) ([]Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.Store.ListBySalesperson(ctx, actor)
}

func (s *Service) ListByStatus(ctx context.Context, actor, status string) ([]Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}
	return s.Store.ListByStatus(ctx, actor, st)
}

type stockDelta struct {
	productID string
	delta     int // change applied to stock
}

// applyDeltas applies the per-product stock change for an updated line-item
// set. All-or-nothing: a failed adjustment reverts everything applied in
// this call before the error is returned.
func (s *Service) applyDeltas(ctx context.Context, items []LineItem, prev map[string]int) ([]stockDelta, error) {
	var applied []stockDelta
	for _, it := range items {
		change := prev[it.ProductID] - it.Qty // stock goes up when qty shrinks
		if change == 0 {
			continue
		}
		if _, err := s.Ledger.Adjust(ctx, it.ProductID, change); err != nil {
			s.revertDeltas(ctx, applied)
			return nil, err
		}
		applied = append(applied, stockDelta{productID: it.ProductID, delta: change})
	}
	return applied, nil
}

// Compensations run on a context detached from the request's cancellation:
// a timed-out request must still restore stock before returning.

func (s *Service) revertDeltas(ctx context.Context, applied []stockDelta) {
	ctx = context.WithoutCancel(ctx)
	for _, d := range applied {
		if _, err := s.Ledger.Adjust(ctx, d.productID, -d.delta); err != nil {
			s.Log.Error("compensating adjustment failed",
				zap.String("product_id", d.productID), zap.Int("delta", -d.delta), zap.Error(err))
		}
	}
}

func (s *Service) releaseAll(ctx context.Context, reserved []LineItem) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range reserved {
		if _, err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			s.Log.Error("compensating release failed",
				zap.String("product_id", it.ProductID), zap.Int("qty", it.Qty), zap.Error(err))
		}
	}
}

func (s *Service) reserveBack(ctx context.Context, released []LineItem) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range released {
		if _, err := s.Ledger.Reserve(ctx, it.ProductID, it.Qty); err != nil {
			s.Log.Error("compensating re-reserve failed",
				zap.String("product_id", it.ProductID), zap.Int("qty", it.Qty), zap.Error(err))
		}
	}
}

// withRetry retries transient store failures a bounded number of times.
// Non-retryable errors and context expiry surface immediately.
func (s *Service) withRetry(ctx context.Context, op func(context.Context) error) error {
	attempts := s.StorageAttempts
	if attempts <= 0 {
		attempts = defaultStorageAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRetryableStorage) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ctx.Err(), domain.ErrRetryableStorage)
		case <-time.After(time.Duration(i+1) * 50 * time.Millisecond):
		}
	}
	return err
}

func requireActor(actor string) error {
	if actor == "" {
		return fmt.Errorf("missing salesperson identity: %w", domain.ErrPermissionDenied)
	}
	return nil
}

func validateItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order needs at least one line item: %w", domain.ErrInvalidArgument)
	}
	for _, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("line item missing product reference: %w", domain.ErrInvalidArgument)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("invalid qty %d for product %s: %w", it.Qty, it.ProductID, domain.ErrInvalidArgument)
		}
	}
	return nil
}
