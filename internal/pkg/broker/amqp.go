package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpTransport struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu        sync.Mutex
	returnFns []ReturnHandler
	declared  map[string]bool
}

// NewAMQPTransport connects to RabbitMQ and opens a channel for publishing
// and consuming. Exchanges are declared lazily as durable direct exchanges
// the first time they are used.
func NewAMQPTransport(url string) (Transport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	t := &amqpTransport{
		conn:     conn,
		channel:  channel,
		declared: make(map[string]bool),
	}

	returns := channel.NotifyReturn(make(chan amqp.Return, 16))
	go t.returnLoop(returns)

	return t, nil
}

// Publish implements Transport. Messages are published with the mandatory
// flag so that unroutable requests come back through NotifyReturn instead of
// being dropped silently.
func (t *amqpTransport) Publish(ctx context.Context, exchange, routingKey string, msg Message) error {
	if err := t.ensureExchange(exchange); err != nil {
		return err
	}

	err := t.channel.PublishWithContext(ctx, exchange, routingKey, true, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.CorrelationID,
		ReplyTo:       msg.ReplyTo,
		Body:          msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}

// Subscribe implements Transport.
func (t *amqpTransport) Subscribe(exchange, routingKey, queue string, handler Handler) (string, error) {
	if err := t.ensureExchange(exchange); err != nil {
		return "", err
	}

	// Named queues are durable work queues shared by the suite; unnamed ones
	// are exclusive to this transport instance (reply queues).
	exclusive := queue == ""
	q, err := t.channel.QueueDeclare(queue, !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	if exchange != "" {
		if err := t.channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return "", fmt.Errorf("failed to bind queue %s to %s/%s: %w", q.Name, exchange, routingKey, err)
		}
	}

	// Reply queues are auto-acked: a lost reply only times out the caller.
	// Work queues ack after the handler returns, so a request in flight when
	// the process dies gets redelivered.
	deliveries, err := t.channel.Consume(q.Name, "", exclusive, exclusive, false, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to consume from queue %s: %w", q.Name, err)
	}

	go t.consumeLoop(q.Name, deliveries, handler, !exclusive)

	return q.Name, nil
}

// NotifyReturn implements Transport.
func (t *amqpTransport) NotifyReturn(fn ReturnHandler) {
	t.mu.Lock()
	t.returnFns = append(t.returnFns, fn)
	t.mu.Unlock()
}

func (t *amqpTransport) Close() error {
	if err := t.channel.Close(); err != nil {
		t.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return t.conn.Close()
}

func (t *amqpTransport) ensureExchange(exchange string) error {
	if exchange == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.declared[exchange] {
		return nil
	}
	if err := t.channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	t.declared[exchange] = true
	return nil
}

func (t *amqpTransport) consumeLoop(queue string, deliveries <-chan amqp.Delivery, handler Handler, manualAck bool) {
	for d := range deliveries {
		t.dispatch(d, handler, manualAck)
	}
	slog.Info("Broker subscription closed", "queue", queue)
}

// dispatch runs the handler and settles the delivery. A panicking handler
// requeues its delivery instead of dropping it.
func (t *amqpTransport) dispatch(d amqp.Delivery, handler Handler, manualAck bool) {
	if manualAck {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Handler panicked, requeueing delivery", "routing_key", d.RoutingKey, "panic", r)
				if err := d.Nack(false, true); err != nil {
					slog.Error("Failed to nack delivery", "routing_key", d.RoutingKey, "error", err)
				}
				return
			}
			if err := d.Ack(false); err != nil {
				slog.Error("Failed to ack delivery", "routing_key", d.RoutingKey, "error", err)
			}
		}()
	}

	handler(context.Background(), Message{
		CorrelationID: d.CorrelationId,
		ReplyTo:       d.ReplyTo,
		Body:          d.Body,
	})
}

func (t *amqpTransport) returnLoop(returns <-chan amqp.Return) {
	for r := range returns {
		slog.Warn("Broker returned unroutable message",
			"exchange", r.Exchange,
			"routing_key", r.RoutingKey,
			"correlation_id", r.CorrelationId,
		)
		t.mu.Lock()
		fns := make([]ReturnHandler, len(t.returnFns))
		copy(fns, t.returnFns)
		t.mu.Unlock()
		for _, fn := range fns {
			fn(r.CorrelationId)
		}
	}
}
