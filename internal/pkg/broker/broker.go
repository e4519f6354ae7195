package broker

import "context"

// Message is a single broker publication or delivery. CorrelationID and
// ReplyTo carry the request/reply convention used across the service suite:
// a request tags both, a reply echoes the CorrelationID back on the queue
// named by ReplyTo.
type Message struct {
	CorrelationID string
	ReplyTo       string
	Body          []byte
}

// Handler is called for each message delivered on a subscription.
type Handler func(ctx context.Context, msg Message)

// ReturnHandler is called with the correlation id of a mandatory publication
// the broker could not route to any queue.
type ReturnHandler func(correlationID string)

// Transport is the publish/subscribe channel everything else is layered on.
// Delivery is at-least-once; there is no ordering guarantee across routing
// keys.
type Transport interface {
	// Publish sends msg to routingKey on exchange. An empty exchange targets
	// the default exchange, where routingKey addresses a queue directly.
	Publish(ctx context.Context, exchange, routingKey string, msg Message) error

	// Subscribe consumes messages matching routingKey on exchange into queue,
	// invoking handler for each delivery until the transport closes. An empty
	// queue name asks the broker for an exclusive, auto-deleted queue; the
	// resolved name is returned either way.
	Subscribe(exchange, routingKey, queue string, handler Handler) (string, error)

	// NotifyReturn registers fn to be called for unroutable publications.
	NotifyReturn(fn ReturnHandler)

	Close() error
}
