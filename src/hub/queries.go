package hub

import (
	"github.com/shopfabric/realtime/src/types"
)

// ConnectionInfo returns metadata for one connection, or nil when it
// is not registered.
func (h *Hub) ConnectionInfo(id string) *types.ConnectionInfo {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	info := c.Info()
	return &info
}

// Stats aggregates registry and room counts for operational
// inspection. Read-only, no side effects.
func (h *Hub) Stats() types.Stats {
	return types.Stats{
		Connections: h.Count(),
		ByRole:      h.StatsByRole(),
		ByRoom:      h.RoomCounts(),
	}
}
