package hub

import (
	"sync"
	"time"

	"github.com/shopfabric/realtime/src/events"
	"github.com/shopfabric/realtime/src/types"
)

// Connection wraps one transport-level channel to a single client.
// The transport layer assigns the ID and hands the channel in; the
// hub owns the rest of the lifecycle.
type Connection struct {
	ID     string
	UserID string
	Role   string

	conn        types.Conn
	send        chan events.Event
	connectedAt time.Time

	mu           sync.RWMutex
	lastActivity time.Time
	closed       bool
	done         chan struct{}
}

// NewConnection creates a connection wrapper around a transport channel.
func NewConnection(id, userID, role string, conn types.Conn, sendBuffer int) *Connection {
	now := time.Now()
	return &Connection{
		ID:           id,
		UserID:       userID,
		Role:         role,
		conn:         conn,
		send:         make(chan events.Event, sendBuffer),
		connectedAt:  now,
		lastActivity: now,
		done:         make(chan struct{}),
	}
}

// Info returns a point-in-time snapshot of this connection's metadata.
func (c *Connection) Info() types.ConnectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.ConnectionInfo{
		ID:           c.ID,
		UserID:       c.UserID,
		Role:         c.Role,
		ConnectedAt:  c.connectedAt,
		LastActivity: c.lastActivity,
	}
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// enqueue places an event on the outbound queue without blocking.
// Returns false when the connection is closed or the buffer is full.
func (c *Connection) enqueue(evt events.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- evt:
		c.lastActivity = time.Now()
		return true
	default:
		return false
	}
}

// WritePump drains the outbound queue to the transport. Call in a
// goroutine; it returns when the connection is closed or a write
// fails. A failed write stops the pump but does not unregister the
// connection -- only an explicit unregister or the liveness monitor
// removes it.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close stops the write pump and rejects further enqueues. Idempotent.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.send)
	}
}
