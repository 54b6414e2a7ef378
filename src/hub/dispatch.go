package hub

import (
	"github.com/shopfabric/realtime/src/events"
)

// SendTo attempts delivery of an event to one connection. A transport
// problem (unknown connection, closed channel, full buffer) is logged
// and swallowed; the only caller-visible failure is a malformed
// event, which is a programming error upstream.
func (h *Hub) SendTo(id string, evt events.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	h.deliver(id, evt)
	return nil
}

// deliver enqueues an event on one connection's outbound queue.
// Never blocks: the queue is buffered and a full or closed queue
// counts as a delivery failure, not a reason to hold the lock.
func (h *Hub) deliver(id string, evt events.Event) bool {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug().
			Str("connection_id", id).
			Str("event_type", evt.Type).
			Msg("delivery target gone")
		return false
	}
	if !c.enqueue(evt) {
		h.logger.Warn().
			Str("connection_id", id).
			Str("event_type", evt.Type).
			Msg("send buffer full or closed, dropping")
		return false
	}
	return true
}

// BroadcastToUser delivers an event to every connection owned by a
// user (there may be several, one per browser tab). Returns the
// number of delivery attempts; zero connections is not an error.
func (h *Hub) BroadcastToUser(userID string, evt events.Event) (int, error) {
	if err := evt.Validate(); err != nil {
		return 0, err
	}
	attempts := h.castToUser(userID, evt)
	h.publishToRelay(ScopeUser, userID, evt)
	return attempts, nil
}

// BroadcastToRoom delivers an event to the room's members as resolved
// once at call start; concurrent room mutations do not change the
// recipient set of an in-flight call. Returns the number of delivery
// attempts; an unknown or empty room resolves to zero.
func (h *Hub) BroadcastToRoom(room string, evt events.Event) (int, error) {
	if err := evt.Validate(); err != nil {
		return 0, err
	}
	attempts := h.castToRoom(room, evt)
	h.publishToRelay(ScopeRoom, room, evt)
	return attempts, nil
}

// BroadcastToAll delivers an event to every registered connection,
// resolved once at call start.
func (h *Hub) BroadcastToAll(evt events.Event) (int, error) {
	if err := evt.Validate(); err != nil {
		return 0, err
	}
	attempts := h.castToAll(evt)
	h.publishToRelay(ScopeAll, "", evt)
	return attempts, nil
}

// Dispatch routes an event by its own target fields: a target room
// narrows delivery to that room, a target user to that user's
// connections, and neither means every connection.
func (h *Hub) Dispatch(evt events.Event) (int, error) {
	switch {
	case evt.TargetRoom != "":
		return h.BroadcastToRoom(evt.TargetRoom, evt)
	case evt.TargetUserID != "":
		return h.BroadcastToUser(evt.TargetUserID, evt)
	default:
		return h.BroadcastToAll(evt)
	}
}

// BroadcastLocal delivers a relayed event to local connections only.
// It does not re-publish to the relay, preventing infinite loops.
func (h *Hub) BroadcastLocal(scope Scope, target string, evt events.Event) {
	switch scope {
	case ScopeConnection:
		h.deliver(target, evt)
	case ScopeUser:
		h.castToUser(target, evt)
	case ScopeRoom:
		h.castToRoom(target, evt)
	case ScopeAll:
		h.castToAll(evt)
	default:
		h.logger.Warn().Str("scope", string(scope)).Msg("unknown relay scope")
	}
}

func (h *Hub) castToUser(userID string, evt events.Event) int {
	h.mu.RLock()
	ids := make([]string, 0, len(h.byUser[userID]))
	for id := range h.byUser[userID] {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.deliver(id, evt)
	}
	return len(ids)
}

func (h *Hub) castToRoom(room string, evt events.Event) int {
	ids := h.MembersOf(room)
	for _, id := range ids {
		h.deliver(id, evt)
	}
	return len(ids)
}

func (h *Hub) castToAll(evt events.Event) int {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.deliver(id, evt)
	}
	return len(ids)
}

// publishToRelay forwards a broadcast to other instances when a relay
// is attached. A relay error never fails the local broadcast.
func (h *Hub) publishToRelay(scope Scope, target string, evt events.Event) {
	h.mu.RLock()
	r := h.relay
	h.mu.RUnlock()

	if r == nil || !r.Available() {
		return
	}
	if err := r.Publish(scope, target, evt); err != nil {
		h.logger.Error().Err(err).Str("event_type", evt.Type).Msg("relay publish failed")
	}
}
