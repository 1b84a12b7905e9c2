package bridge

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"kinectxr/internal/bridge/broadcast"
	"kinectxr/internal/bridge/protocol"
)

// websocket message type constants, matching gorilla/websocket's
// TextMessage/BinaryMessage without importing the package here (kept out
// of this file so it stays transport-agnostic and unit-testable).
const (
	textMessage   = 1
	binaryMessage = 2
)

type outboundFrame struct {
	messageType int
	data        []byte
}

// Client represents one connected websocket session. Send is intentionally
// never closed by the server, to avoid a broadcaster panicking on a send to
// a closed channel; done signals goroutines to stop. Close is idempotent.
// Grounded on other_examples/itsthenavid-arc__client.go's shape, extended
// with a per-client subscription set and typed outbound frames so one
// channel can carry both JSON status/error messages and binary pixel
// frames.
type Client struct {
	ID string

	Send chan outboundFrame

	done      chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	subscriptions map[broadcast.StreamType]bool
}

// NewClient constructs a Client with a bounded send queue and a
// freshly-generated connection ID.
func NewClient(sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		ID:            uuid.NewString(),
		Send:          make(chan outboundFrame, sendQueueSize),
		done:          make(chan struct{}),
		subscriptions: make(map[broadcast.StreamType]bool),
	}
}

// Done returns a channel closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals the client's pump goroutines to stop. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SendJSON marshals v and enqueues it as a text frame. It never blocks: if
// the client's send queue is full, the message is dropped rather than
// stalling the broadcaster or another client's pump.
func (c *Client) SendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.Send <- outboundFrame{messageType: textMessage, data: data}:
	case <-c.done:
	default:
	}
}

// SendBinary implements broadcast.Subscriber: enqueues a pre-built binary
// frame, dropping it silently if the client's queue is full.
func (c *Client) SendBinary(frame []byte) {
	select {
	case c.Send <- outboundFrame{messageType: binaryMessage, data: frame}:
	case <-c.done:
	default:
	}
}

// IsSubscribed implements broadcast.Subscriber.
func (c *Client) IsSubscribed(stream broadcast.StreamType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[stream]
}

// SetSubscriptions replaces the client's subscription set from the raw
// stream names a subscribe message carried. Unknown names are silently
// ignored, per spec.md §4.G.
func (c *Client) SetSubscriptions(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions = make(map[broadcast.StreamType]bool)
	for _, n := range names {
		if st, ok := streamTypeFromName(n); ok {
			c.subscriptions[st] = true
		}
	}
}

// RemoveSubscriptions removes streams named in an unsubscribe message.
func (c *Client) RemoveSubscriptions(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if st, ok := streamTypeFromName(n); ok {
			delete(c.subscriptions, st)
		}
	}
}

// Subscriptions returns the client's current stream names, for status
// messages.
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	if c.subscriptions[broadcast.StreamTypeRGB] {
		names = append(names, protocol.StreamRGB)
	}
	if c.subscriptions[broadcast.StreamTypeDepth] {
		names = append(names, protocol.StreamDepth)
	}
	return names
}

func streamTypeFromName(name string) (broadcast.StreamType, bool) {
	switch name {
	case protocol.StreamRGB:
		return broadcast.StreamTypeRGB, true
	case protocol.StreamDepth:
		return broadcast.StreamTypeDepth, true
	default:
		return 0, false
	}
}

// registry is the server's thread-safe client set, implementing
// broadcast.ClientSource.
type registry struct {
	mu      sync.Mutex
	clients map[string]*Client
}

func newRegistry() *registry {
	return &registry{clients: make(map[string]*Client)}
}

func (r *registry) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

func (r *registry) remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c.ID)
}

func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *registry) Snapshot() []broadcast.Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broadcast.Subscriber, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *registry) broadcastJSON(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		c.SendJSON(v)
	}
}

// forEach calls fn once per connected client, e.g. to send each one a
// status message carrying its own subscription set.
func (r *registry) forEach(fn func(*Client)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		fn(c)
	}
}
