package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderUpdated   = "order.updated"
	TopicOrderCancelled = "order.cancelled"
)

// Topics lists every order lifecycle topic, for consumer group subscriptions.
func Topics() []string {
	return []string{TopicOrderCreated, TopicOrderUpdated, TopicOrderCancelled}
}

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
