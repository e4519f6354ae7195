package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/businessapi/organization-backend-go/internal/pkg/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-process stand-in for the AMQP transport. Messages
// published to the default exchange are delivered to the handler subscribed
// under the routing key (queue name); everything published to a named
// exchange is exposed on the requests channel for the test to answer.
type fakeTransport struct {
	mu         sync.Mutex
	handlers   map[string]broker.Handler
	returns    []broker.ReturnHandler
	unroutable map[string]bool
	queueSeq   int

	// respond, when set, answers requests synchronously from inside Publish,
	// before the publishing caller resumes.
	respond func(req broker.Message) broker.Message

	requests chan broker.Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers:   make(map[string]broker.Handler),
		unroutable: make(map[string]bool),
		requests:   make(chan broker.Message, 128),
	}
}

func (t *fakeTransport) Publish(ctx context.Context, exchange, routingKey string, msg broker.Message) error {
	t.mu.Lock()
	if exchange != "" && t.unroutable[routingKey] {
		fns := make([]broker.ReturnHandler, len(t.returns))
		copy(fns, t.returns)
		t.mu.Unlock()
		for _, fn := range fns {
			go fn(msg.CorrelationID)
		}
		return nil
	}
	handler := t.handlers[routingKey]
	t.mu.Unlock()

	if exchange == "" {
		if handler != nil {
			go handler(ctx, msg)
		}
		return nil
	}

	if t.respond != nil {
		t.deliver(msg.ReplyTo, t.respond(msg))
		return nil
	}

	t.requests <- msg
	return nil
}

func (t *fakeTransport) Subscribe(exchange, routingKey, queue string, handler broker.Handler) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if queue == "" {
		t.queueSeq++
		queue = fmt.Sprintf("amq.gen-%d", t.queueSeq)
	}
	t.handlers[queue] = handler
	return queue, nil
}

func (t *fakeTransport) NotifyReturn(fn broker.ReturnHandler) {
	t.mu.Lock()
	t.returns = append(t.returns, fn)
	t.mu.Unlock()
}

func (t *fakeTransport) Close() error { return nil }

// deliver injects a message straight into the queue's handler, as the broker
// would on delivery.
func (t *fakeTransport) deliver(queue string, msg broker.Message) {
	t.mu.Lock()
	handler := t.handlers[queue]
	t.mu.Unlock()
	if handler != nil {
		handler(context.Background(), msg)
	}
}

func TestClient_Call_ResolvesWithMatchingReply(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, time.Second)
	require.NoError(t, err)

	// Responder echoes the request body back under the same correlation id.
	go func() {
		req := <-transport.requests
		transport.deliver(req.ReplyTo, broker.Message{
			CorrelationID: req.CorrelationID,
			Body:          []byte(`"pong"`),
		})
	}()

	body, err := client.Call(context.Background(), "businessDirectExchange", "keyPing", "ping")
	require.NoError(t, err)
	assert.JSONEq(t, `"pong"`, string(body))
}

func TestClient_Call_RegistersWaiterBeforePublishing(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, time.Second)
	require.NoError(t, err)

	// Reply synchronously from inside Publish, before Call resumes. The call
	// must still resolve, proving the waiter was registered first.
	transport.respond = func(req broker.Message) broker.Message {
		return broker.Message{CorrelationID: req.CorrelationID, Body: []byte(`true`)}
	}

	body, err := client.Call(context.Background(), "businessDirectExchange", "keyFast", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "true", string(body))
}

func TestClient_Call_ConcurrentCallsGetOwnReplies(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, 5*time.Second)
	require.NoError(t, err)

	const calls = 32

	// Collect every request first, then answer in shuffled order so replies
	// interleave arbitrarily with waiting callers.
	go func() {
		collected := make([]broker.Message, 0, calls)
		for i := 0; i < calls; i++ {
			collected = append(collected, <-transport.requests)
		}
		rand.Shuffle(len(collected), func(i, j int) {
			collected[i], collected[j] = collected[j], collected[i]
		})
		for _, req := range collected {
			var n int
			if err := json.Unmarshal(req.Body, &n); err != nil {
				continue
			}
			transport.deliver(req.ReplyTo, broker.Message{
				CorrelationID: req.CorrelationID,
				Body:          []byte(fmt.Sprintf("%d", n*2)),
			})
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			body, err := client.Call(context.Background(), "businessDirectExchange", "keyDouble", n)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d", n*2), string(body))
		}(i)
	}
	wg.Wait()
}

func TestClient_Call_TimeoutReleasesPendingCall(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "businessDirectExchange", "keySilent", "anyone there?")
	require.ErrorIs(t, err, ErrTimeout)

	client.mu.Lock()
	remaining := len(client.pending)
	client.mu.Unlock()
	assert.Zero(t, remaining, "timed out call must not leak its registration")

	// A late reply after the timeout is dropped, not redelivered.
	req := <-transport.requests
	transport.deliver(req.ReplyTo, broker.Message{
		CorrelationID: req.CorrelationID,
		Body:          []byte(`"too late"`),
	})

	client.mu.Lock()
	remaining = len(client.pending)
	client.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestClient_Call_UnroutableRequestFailsFast(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	transport.unroutable["keyNowhere"] = true

	client, err := NewClient(transport, time.Second)
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "businessDirectExchange", "keyNowhere", "hello")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_Call_ContextCancellation(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-transport.requests
		cancel()
	}()

	_, err = client.Call(ctx, "businessDirectExchange", "keySlow", "waiting")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Notify_DoesNotWait(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, time.Second)
	require.NoError(t, err)

	err = client.Notify(context.Background(), "businessDirectExchange", "keySendMail", map[string]string{"to": "new.hire@example.com"})
	require.NoError(t, err)

	select {
	case msg := <-transport.requests:
		assert.Empty(t, msg.CorrelationID, "notifications carry no correlation id")
		assert.Empty(t, msg.ReplyTo)
	case <-time.After(time.Second):
		t.Fatal("notification was never published")
	}

	client.mu.Lock()
	remaining := len(client.pending)
	client.mu.Unlock()
	assert.Zero(t, remaining, "notify must not register a pending call")
}

func TestClient_Closed_RejectsCalls(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	client, err := NewClient(transport, time.Second)
	require.NoError(t, err)

	client.Close()

	_, err = client.Call(context.Background(), "businessDirectExchange", "keyPing", "ping")
	assert.ErrorIs(t, err, ErrClientClosed)
}
