package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/src/events"
)

// mockConn implements types.Conn for testing without a real WebSocket.
type mockConn struct {
	mu         sync.Mutex
	written    []events.Event
	failWrites bool
	closed     bool
	readCh     chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{readCh: make(chan struct{})}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("transport broken")
	}
	if evt, ok := v.(events.Event); ok {
		m.written = append(m.written, evt)
	}
	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	<-m.readCh
	return errors.New("connection closed")
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.readCh)
	}
	return nil
}

func (m *mockConn) getWritten() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]events.Event, len(m.written))
	copy(cp, m.written)
	return cp
}

func newTestHub() *Hub {
	return New(16, zerolog.Nop())
}

// registerConn registers a mock connection and starts its write pump.
func registerConn(t *testing.T, h *Hub, id, userID, role string) (*Connection, *mockConn) {
	t.Helper()
	conn := newMockConn()
	c, err := h.Register(id, userID, role, conn)
	if err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	go c.WritePump()
	return c, conn
}
