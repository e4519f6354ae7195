package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/businessapi/organization-backend-go/internal/pkg/broker"
	"github.com/google/uuid"
)

type result struct {
	body []byte
	err  error
}

// Client turns the one-way broker transport into synchronous request/reply
// calls. Every client owns one exclusive reply queue; a single consumer
// goroutine demultiplexes replies to the waiting caller by correlation id.
type Client struct {
	transport  broker.Transport
	timeout    time.Duration
	replyQueue string

	mu      sync.Mutex
	pending map[string]chan result
	closed  bool
}

// NewClient subscribes the client's reply queue and starts dispatching
// replies. timeout bounds every Call.
func NewClient(transport broker.Transport, timeout time.Duration) (*Client, error) {
	c := &Client{
		transport: transport,
		timeout:   timeout,
		pending:   make(map[string]chan result),
	}

	replyQueue, err := transport.Subscribe("", "", "", c.handleReply)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe reply queue: %w", err)
	}
	c.replyQueue = replyQueue

	transport.NotifyReturn(c.handleReturn)

	return c, nil
}

// Call publishes payload to exchange/routingKey and blocks until the matching
// reply arrives, the timeout elapses (ErrTimeout), the broker reports the
// request unroutable (ErrUnreachable), or ctx is cancelled. The returned
// bytes are the raw reply body.
func (c *Client) Call(ctx context.Context, exchange, routingKey string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	correlationID := uuid.NewString()
	ch := make(chan result, 1)

	// Register the waiter before publishing, so a reply that arrives faster
	// than this goroutine resumes still finds it.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.pending[correlationID] = ch
	c.mu.Unlock()
	defer c.discard(correlationID)

	msg := broker.Message{
		CorrelationID: correlationID,
		ReplyTo:       c.replyQueue,
		Body:          body,
	}
	if err := c.transport.Publish(ctx, exchange, routingKey, msg); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.body, nil
	case <-timer.C:
		slog.Warn("RPC call timed out", "routing_key", routingKey, "correlation_id", correlationID)
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Notify is a fire-and-forget publish. There is no reply and no delivery
// guarantee beyond the transport's at-least-once semantics.
func (c *Client) Notify(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return c.transport.Publish(ctx, exchange, routingKey, broker.Message{Body: body})
}

// ReplyQueue returns the name of this client's exclusive reply queue.
func (c *Client) ReplyQueue() string {
	return c.replyQueue
}

// Close rejects new calls. In-flight calls still resolve or time out.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// handleReply resolves the pending call matching the reply's correlation id.
// The entry is removed before resolving, so a call is resolved at most once;
// duplicate or late replies are dropped here.
func (c *Client) handleReply(_ context.Context, msg broker.Message) {
	ch, ok := c.take(msg.CorrelationID)
	if !ok {
		slog.Debug("Dropping unmatched reply", "correlation_id", msg.CorrelationID)
		return
	}
	ch <- result{body: msg.Body}
}

// handleReturn resolves a pending call whose request the broker could not
// route.
func (c *Client) handleReturn(correlationID string) {
	ch, ok := c.take(correlationID)
	if !ok {
		return
	}
	ch <- result{err: ErrUnreachable}
}

func (c *Client) take(correlationID string) (chan result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[correlationID]
	if ok {
		delete(c.pending, correlationID)
	}
	return ch, ok
}

func (c *Client) discard(correlationID string) {
	c.mu.Lock()
	delete(c.pending, correlationID)
	c.mu.Unlock()
}
