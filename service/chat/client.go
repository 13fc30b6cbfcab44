package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the live connection handle: the one reference usable to push an
// event to exactly one transport session. The registry stores it non-owning;
// the websocket layer owns the lifecycle.
type Client struct {
	ConnID string          // unique within this process (snowflake)
	UserID string          // identity asserted at connect time
	WS     *websocket.Conn // nil for channel-only clients in tests

	Send chan []byte // outbound queue, drained by a single writer goroutine

	CreatedAt time.Time

	mu     sync.RWMutex
	closed bool
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID:    connID,
		UserID:    userID,
		WS:        ws,
		Send:      make(chan []byte, sendQueueSize),
		CreatedAt: time.Now(),
	}
}

// Push enqueues a payload without blocking. Returns false when the client is
// closed or its buffer is full; fan-out treats both as a silent drop.
func (c *Client) Push(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close makes further pushes no-ops and releases the writer goroutine.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
