package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/salescrm/orders-backend/internal/domain"
	kafkax "github.com/salescrm/orders-backend/internal/kafka"
	"github.com/salescrm/orders-backend/internal/orders"
	"github.com/salescrm/orders-backend/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
	Auth    *Authenticator

	ProducerCreated   *kafkax.Producer
	ProducerUpdated   *kafkax.Producer
	ProducerCancelled *kafkax.Producer

	ServiceName string
}

type CreateOrderReq struct {
	ClientID   string            `json:"client_id"`
	Items      []orders.LineItem `json:"items"`
	TotalCents int               `json:"total_cents"`
	Status     string            `json:"status,omitempty"`
}

type UpdateOrderReq struct {
	ClientID   string            `json:"client_id,omitempty"`
	Items      []orders.LineItem `json:"items,omitempty"`
	TotalCents int               `json:"total_cents,omitempty"`
	Status     string            `json:"status,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/status/{status}", h.listOrdersByStatus)
		r.Get("/orders/{id}", h.getOrder)
		r.Put("/orders/{id}", h.updateOrder)
		r.Delete("/orders/{id}", h.deleteOrder)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	if ise, ok := domain.IsInsufficientStock(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        ise.Error(),
			"product_id":   ise.ProductID,
			"product_name": ise.ProductName,
			"available":    ise.Available,
			"requested":    ise.Requested,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "operation timed out, retry"})
	case errors.Is(err, domain.ErrRetryableStorage):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable, retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actor := SalespersonID(ctx)
	o, err := h.Service.Create(ctx, actor, orders.CreateInput{
		ClientID:   req.ClientID,
		Items:      req.Items,
		TotalCents: req.TotalCents,
		Status:     req.Status,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheOrder(ctx, o)
	h.publish(h.ProducerCreated, orders.EventOrderCreated, o.ID, r.Header.Get("X-Request-Id"),
		orders.OrderCreatedPayload{
			OrderID:       o.ID,
			ClientID:      o.ClientID,
			SalespersonID: o.SalespersonID,
			Status:        string(o.Status),
			Items:         o.ItemQtys(),
			TotalCents:    o.TotalCents,
		})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actor := SalespersonID(ctx)
	prev, err := h.Service.Get(ctx, actor, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	o, err := h.Service.Update(ctx, actor, id, orders.UpdateInput{
		ClientID:   req.ClientID,
		Items:      req.Items,
		TotalCents: req.TotalCents,
		Status:     req.Status,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheOrder(ctx, o)
	h.publish(h.ProducerUpdated, orders.EventOrderUpdated, o.ID, r.Header.Get("X-Request-Id"),
		orders.OrderUpdatedPayload{
			OrderID:       o.ID,
			SalespersonID: o.SalespersonID,
			Status:        string(o.Status),
			PrevStatus:    string(prev.Status),
			Items:         o.ItemQtys(),
			TotalCents:    o.TotalCents,
		})

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actor := SalespersonID(ctx)
	o, err := h.Service.Delete(ctx, actor, id)
	if err != nil {
		writeErr(w, err)
		return
	}

	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderCache, id)).Err()
	h.publish(h.ProducerCancelled, orders.EventOrderCancelled, o.ID, r.Header.Get("X-Request-Id"),
		orders.OrderCancelledPayload{
			OrderID:       o.ID,
			SalespersonID: o.SalespersonID,
			Status:        string(o.Status),
			Items:         o.ItemQtys(),
		})

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	actor := SalespersonID(ctx)

	// cache first, DB as the source of truth
	key := fmt.Sprintf(redisx.KeyOrderCache, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		var cached orders.Order
		if json.Unmarshal([]byte(s), &cached) == nil && cached.SalespersonID == actor {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	o, err := h.Service.Get(ctx, actor, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListForSalesperson(ctx, SalespersonID(ctx))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListByStatus(ctx, SalespersonID(ctx), chi.URLParam(r, "status"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// cacheOrder best-effort caches the order document; redis being down never
// fails the request.
func (h *OrdersHandler) cacheOrder(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderCache, o.ID)
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(o), redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID, traceID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
