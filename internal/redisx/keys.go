package redisx

import "time"

const (
	// Cache of a full order document: order:{order_id} -> JSON
	KeyOrderCache = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Reporting projection: set of order ids per salesperson+status.
	// rep:orders:{salesperson_id}:{status}
	KeyOrdersByStatus = "rep:orders:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
