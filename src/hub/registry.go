package hub

import (
	"errors"
	"fmt"

	"github.com/shopfabric/realtime/src/types"
)

// ErrDuplicateConnection is returned when registering an ID that is
// already present. The transport layer must mint a fresh ID per
// session.
var ErrDuplicateConnection = errors.New("connection id already registered")

// Register inserts a new connection for an authenticated channel and
// starts tracking its liveness. The returned Connection's WritePump
// must be started by the caller.
func (h *Hub) Register(id, userID, role string, conn types.Conn) (*Connection, error) {
	c := NewConnection(id, userID, role, conn, h.sendBuffer)

	h.mu.Lock()
	if _, ok := h.conns[id]; ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateConnection, id)
	}
	h.conns[id] = c
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]struct{})
	}
	h.byUser[userID][id] = struct{}{}
	h.mu.Unlock()

	h.logger.Info().
		Str("connection_id", id).
		Str("user_id", userID).
		Str("role", role).
		Msg("connection registered")
	return c, nil
}

// Unregister removes a connection and, in the same critical section,
// its membership in every room. Idempotent: disconnects can race with
// eviction, so an unknown ID is a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, id)

	if set, ok := h.byUser[c.UserID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	h.removeFromAllRoomsLocked(id)
	h.mu.Unlock()

	c.Close()
	h.logger.Info().
		Str("connection_id", id).
		Str("user_id", c.UserID).
		Msg("connection unregistered")
}

// Touch records heartbeat activity. No-op when the connection is gone.
func (h *Hub) Touch(id string) {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if ok {
		c.touch()
	}
}

// ListActive returns an independent snapshot of every registered
// connection, safe to iterate while the registry mutates.
func (h *Hub) ListActive() []types.ConnectionInfo {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	infos := make([]types.ConnectionInfo, 0, len(conns))
	for _, c := range conns {
		infos = append(infos, c.Info())
	}
	return infos
}

// StatsByRole counts active connections per role.
func (h *Hub) StatsByRole() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int)
	for _, c := range h.conns {
		out[c.Role]++
	}
	return out
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
