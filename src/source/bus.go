// Package source provides the in-process event bus that business
// logic publishes domain events into. Broadcast is a side channel:
// publishing never blocks and never fails the caller.
package source

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/src/events"
)

// Handler receives a published domain event.
type Handler func(name string, payload events.Payload)

// Bus is a minimal named-event pub/sub for in-process subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]Handler),
		logger: logger,
	}
}

// Subscribe registers a handler for a named event.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

// Publish invokes every handler subscribed to the event name. A
// panicking handler is recovered and logged so the publishing
// business logic never sees a failure from the broadcast side
// channel.
func (b *Bus) Publish(name string, payload events.Payload) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[name]))
	copy(handlers, b.subs[name])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug().Str("event", name).Msg("no subscribers")
		return
	}
	for _, h := range handlers {
		b.invoke(name, payload, h)
	}
}

func (b *Bus) invoke(name string, payload events.Payload, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("event", name).Any("panic", r).Msg("subscriber panicked")
		}
	}()
	h(name, payload)
}
