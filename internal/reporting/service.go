// Package reporting keeps the redis projection that reporting tooling reads:
// per salesperson and status, the set of order ids currently in that state.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/salescrm/orders-backend/internal/kafka"
	"github.com/salescrm/orders-backend/internal/orders"
	"github.com/salescrm/orders-backend/internal/redisx"
)

var allStatuses = []orders.Status{orders.StatusPending, orders.StatusCompleted, orders.StatusCancelled}

type Service struct {
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleOrderEvent is installed as the consumer handler for every order
// lifecycle topic.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via redis on event_id; replays are expected with manual commits
	dkey := fmt.Sprintf(redisx.KeyDedup, "reporting", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	var err error
	switch env.EventType {
	case orders.EventOrderCreated:
		err = s.onCreated(ctx, env.Payload)
	case orders.EventOrderUpdated:
		err = s.onUpdated(ctx, env.Payload)
	case orders.EventOrderCancelled:
		err = s.onCancelled(ctx, env.Payload)
	default:
		s.Log.Debug("ignoring event", zap.String("event_type", env.EventType))
		return nil
	}
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func (s *Service) onCreated(ctx context.Context, payload json.RawMessage) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](payload)
	if err != nil {
		return err
	}
	return s.place(ctx, p.SalespersonID, p.OrderID, orders.Status(p.Status))
}

func (s *Service) onUpdated(ctx context.Context, payload json.RawMessage) error {
	p, err := kafkax.UnwrapPayload[orders.OrderUpdatedPayload](payload)
	if err != nil {
		return err
	}
	return s.place(ctx, p.SalespersonID, p.OrderID, orders.Status(p.Status))
}

func (s *Service) onCancelled(ctx context.Context, payload json.RawMessage) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](payload)
	if err != nil {
		return err
	}
	return s.remove(ctx, p.SalespersonID, p.OrderID)
}

// place moves the order id into the set for its current status and out of
// every other one.
func (s *Service) place(ctx context.Context, salespersonID, orderID string, status orders.Status) error {
	for _, st := range allStatuses {
		key := fmt.Sprintf(redisx.KeyOrdersByStatus, salespersonID, st)
		if st == status {
			if err := s.Redis.SAdd(ctx, key, orderID).Err(); err != nil {
				return err
			}
			continue
		}
		if err := s.Redis.SRem(ctx, key, orderID).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) remove(ctx context.Context, salespersonID, orderID string) error {
	for _, st := range allStatuses {
		key := fmt.Sprintf(redisx.KeyOrdersByStatus, salespersonID, st)
		if err := s.Redis.SRem(ctx, key, orderID).Err(); err != nil {
			return err
		}
	}
	return nil
}
