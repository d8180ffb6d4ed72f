package orders

import "time"

// LineItem is a (product, quantity) pair inside one order.
type LineItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Order struct {
	ID            string     `json:"id"`
	Items         []LineItem `json:"items"`
	TotalCents    int        `json:"total_cents"` // caller-supplied, never recomputed
	ClientID      string     `json:"client_id"`
	SalespersonID string     `json:"salesperson_id"` // set at creation, immutable
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// qtyByProduct indexes the quantity each product had in this order.
func (o Order) qtyByProduct() map[string]int {
	prev := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		prev[it.ProductID] = it.Qty
	}
	return prev
}
