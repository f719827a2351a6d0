package kafka

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderPlaced EventType = "order.placed"

	// Cart события
	EventTypeCartCleared EventType = "cart.cleared"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "shop.order.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)
