package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderUpdated   = "OrderUpdated"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "orders-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID       string    `json:"order_id"`
	ClientID      string    `json:"client_id"`
	SalespersonID string    `json:"salesperson_id"`
	Status        string    `json:"status"`
	Items         []ItemQty `json:"items"`
	TotalCents    int       `json:"total_cents"`
}

type OrderUpdatedPayload struct {
	OrderID       string    `json:"order_id"`
	SalespersonID string    `json:"salesperson_id"`
	Status        string    `json:"status"`
	PrevStatus    string    `json:"prev_status"`
	Items         []ItemQty `json:"items"`
	TotalCents    int       `json:"total_cents"`
}

type OrderCancelledPayload struct {
	OrderID       string    `json:"order_id"`
	SalespersonID string    `json:"salesperson_id"`
	Status        string    `json:"status"` // status at deletion time
	Items         []ItemQty `json:"items"`  // released quantities
}

// ItemQtys converts an order's line items to event payload form.
func (o Order) ItemQtys() []ItemQty {
	out := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}
