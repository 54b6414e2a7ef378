// Package service is the high-level API surface of the realtime
// core: connection lifecycle, room membership, broadcasting, and the
// diagnostics views.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/src/events"
	"github.com/shopfabric/realtime/src/hub"
	"github.com/shopfabric/realtime/src/source"
	"github.com/shopfabric/realtime/src/types"
)

// EventTrail is the optional diagnostic view over recently dispatched
// events, backed by the Redis relay when one is attached.
type EventTrail interface {
	RecentEvents(ctx context.Context, limit int) ([]events.Event, error)
}

// Service wraps the hub and event bus behind one facade.
type Service struct {
	hub    *hub.Hub
	bus    *source.Bus
	trail  EventTrail
	logger zerolog.Logger
}

// New creates a service backed by the given hub and bus.
func New(h *hub.Hub, bus *source.Bus, logger zerolog.Logger) *Service {
	return &Service{hub: h, bus: bus, logger: logger}
}

// Hub returns the underlying hub.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Bus returns the in-process event bus business logic publishes into.
func (s *Service) Bus() *source.Bus { return s.bus }

// SetTrail attaches a diagnostic event trail.
func (s *Service) SetTrail(t EventTrail) { s.trail = t }

// Register adds a connection for an authenticated transport channel.
// Role-based room auto-membership: admins and managers join the
// "admins" room on connect.
func (s *Service) Register(id, userID, role string, conn types.Conn) (*hub.Connection, error) {
	c, err := s.hub.Register(id, userID, role, conn)
	if err != nil {
		return nil, err
	}
	if role == "admin" || role == "manager" {
		s.hub.AddToRoom("admins", id)
	}
	return c, nil
}

// Unregister removes a connection and all its room memberships.
func (s *Service) Unregister(id string) {
	s.hub.Unregister(id)
}

// Touch records a client heartbeat.
func (s *Service) Touch(id string) {
	s.hub.Touch(id)
}

// JoinRoom adds a connection to a room.
func (s *Service) JoinRoom(room, id string) error {
	if ok := s.hub.AddToRoom(room, id); !ok {
		return fmt.Errorf("connection %s not found", id)
	}
	s.logger.Debug().Str("connection_id", id).Str("room", room).Msg("joined room")
	return nil
}

// LeaveRoom removes a connection from a room.
func (s *Service) LeaveRoom(room, id string) {
	s.hub.RemoveFromRoom(room, id)
}

// Publish hands a domain event to the bus. It never fails the caller;
// broadcast is a side channel, not a critical path.
func (s *Service) Publish(name string, payload events.Payload) {
	s.bus.Publish(name, payload)
}

// Dispatch routes an event by its own target fields.
func (s *Service) Dispatch(evt events.Event) (int, error) {
	return s.hub.Dispatch(evt)
}

// BroadcastToRoom sends an event to a room's current members.
func (s *Service) BroadcastToRoom(room string, evt events.Event) (int, error) {
	return s.hub.BroadcastToRoom(room, evt)
}

// BroadcastToUser sends an event to every connection of one user.
func (s *Service) BroadcastToUser(userID string, evt events.Event) (int, error) {
	return s.hub.BroadcastToUser(userID, evt)
}

// BroadcastToAll sends an event to every registered connection.
func (s *Service) BroadcastToAll(evt events.Event) (int, error) {
	return s.hub.BroadcastToAll(evt)
}

// GetConnectionStats returns counts by role and by room.
func (s *Service) GetConnectionStats() types.Stats {
	return s.hub.Stats()
}

// GetActiveConnections returns a snapshot of all connections.
func (s *Service) GetActiveConnections() []types.ConnectionInfo {
	return s.hub.ListActive()
}

// RecentEvents returns the diagnostic event trail, or an error when
// no trail is attached.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]events.Event, error) {
	if s.trail == nil {
		return nil, fmt.Errorf("no event trail attached")
	}
	return s.trail.RecentEvents(ctx, limit)
}
