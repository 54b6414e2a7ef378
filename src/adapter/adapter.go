// Package adapter translates domain events from the business logic
// into broadcasts. The adapter owns the policy of who hears what; the
// dispatcher stays policy-free.
package adapter

import (
	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/src/events"
	"github.com/shopfabric/realtime/src/source"
)

// Dispatcher is the broadcast capability the adapter needs from the hub.
type Dispatcher interface {
	BroadcastToRoom(room string, evt events.Event) (int, error)
}

// DefaultRoutes maps domain event names to the room that should hear
// them. Back-office events all land in the admins room.
func DefaultRoutes() map[string]string {
	return map[string]string{
		events.OrderCreated:     "admins",
		events.OrderUpdated:     "admins",
		events.InventoryUpdated: "admins",
		events.InventoryLow:     "admins",
		events.UserRegistered:   "admins",
		events.PaymentProcessed: "admins",
	}
}

// Adapter subscribes to a fixed set of domain events and rebroadcasts
// them to rooms. Any failure is logged and the event dropped;
// broadcast problems never reach the publishing business logic.
type Adapter struct {
	dispatcher Dispatcher
	routes     map[string]string
	logger     zerolog.Logger
}

// New creates an adapter and subscribes it to the bus for every route.
// A nil routes map gets DefaultRoutes.
func New(bus *source.Bus, d Dispatcher, routes map[string]string, logger zerolog.Logger) *Adapter {
	if routes == nil {
		routes = DefaultRoutes()
	}
	a := &Adapter{
		dispatcher: d,
		routes:     routes,
		logger:     logger.With().Str("component", "event-adapter").Logger(),
	}
	for name := range routes {
		bus.Subscribe(name, a.handle)
	}
	return a
}

func (a *Adapter) handle(name string, payload events.Payload) {
	room, ok := a.routes[name]
	if !ok {
		a.logger.Debug().Str("event", name).Msg("no route")
		return
	}
	evt := events.New(name, payload)
	evt.TargetRoom = room

	attempts, err := a.dispatcher.BroadcastToRoom(room, evt)
	if err != nil {
		a.logger.Error().Err(err).Str("event", name).Msg("broadcast failed, event dropped")
		return
	}
	a.logger.Debug().
		Str("event", name).
		Str("event_id", evt.ID).
		Str("room", room).
		Int("attempts", attempts).
		Msg("event broadcast")
}
