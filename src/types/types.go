package types

import "time"

// ConnectionInfo holds metadata about a registered connection.
type ConnectionInfo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Stats aggregates registry and room counts for the diagnostics surface.
type Stats struct {
	Connections int            `json:"connections"`
	ByRole      map[string]int `json:"by_role"`
	ByRoom      map[string]int `json:"by_room"`
}

// Conn abstracts a transport-level channel for testability.
// The real implementation wraps a WebSocket; the core never
// creates one itself.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
