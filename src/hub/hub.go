package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/src/events"
)

// Relay publishes broadcasts to other server instances.
// Defined here to avoid circular imports with the relay package.
type Relay interface {
	Publish(scope Scope, target string, evt events.Event) error
	Available() bool
}

// Scope names the recipient set of a broadcast.
type Scope string

const (
	ScopeConnection Scope = "connection"
	ScopeUser       Scope = "user"
	ScopeRoom       Scope = "room"
	ScopeAll        Scope = "all"
)

// Hub owns the connection registry and the room directory. Both maps
// live behind one mutex so unregistering a connection and pulling it
// out of every room is a single atomic step (no orphaned membership).
type Hub struct {
	conns  map[string]*Connection
	byUser map[string]map[string]struct{} // userID -> set of connection IDs
	rooms  map[string]map[string]struct{} // room -> set of connection IDs

	sendBuffer int
	relay      Relay
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// New creates an empty hub. sendBuffer sizes each connection's
// outbound queue; values below 1 get the default of 256.
func New(sendBuffer int, logger zerolog.Logger) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 256
	}
	return &Hub{
		conns:      make(map[string]*Connection),
		byUser:     make(map[string]map[string]struct{}),
		rooms:      make(map[string]map[string]struct{}),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// SetRelay attaches a cross-instance relay. When set, broadcasts are
// also forwarded to other instances.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = r
}

// Shutdown unregisters every connection. Used on daemon stop.
func (h *Hub) Shutdown() {
	for _, info := range h.ListActive() {
		h.Unregister(info.ID)
	}
}
