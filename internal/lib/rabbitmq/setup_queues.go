package rabbitmq

// ExchangeName is the direct exchange carrying tracking events.
const ExchangeName = "tracking"

// TrackingQueue receives open/click/action events published by the tracking
// endpoints and consumed by the tracking worker.
const TrackingQueue = "tracking.events"

// TrackingRoutingKey routes every tracking event kind to TrackingQueue.
const TrackingRoutingKey = "event"

// QueueConfig pairs a queue with its routing key on the tracking exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetTrackingQueues returns the queue topology used by both the publisher
// side (HTTP server) and the consumer side (tracking worker).
func GetTrackingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TrackingQueue, RoutingKey: TrackingRoutingKey},
	}
}
