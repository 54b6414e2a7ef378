package hub

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Monitor evicts connections whose last activity is older than the
// configured timeout. It is the only component allowed to remove a
// connection without an explicit disconnect from the transport.
type Monitor struct {
	hub      *Hub
	timeout  time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

// NewMonitor creates a liveness monitor. timeout is how long a
// connection may stay silent; interval is how often to sweep.
func NewMonitor(h *Hub, timeout, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		hub:      h,
		timeout:  timeout,
		interval: interval,
		logger:   logger.With().Str("component", "liveness-monitor").Logger(),
	}
}

// Sweep evicts every stale connection and returns the count removed.
// Staleness is recomputed from lastActivity on each sweep, never
// stored. Safe to run concurrently with disconnects: Unregister is
// idempotent.
func (m *Monitor) Sweep() int {
	now := time.Now()
	removed := 0
	for _, info := range m.hub.ListActive() {
		if now.Sub(info.LastActivity) > m.timeout {
			m.hub.Unregister(info.ID)
			removed++
			m.logger.Info().
				Str("connection_id", info.ID).
				Str("user_id", info.UserID).
				Time("last_activity", info.LastActivity).
				Msg("evicted stale connection")
		}
	}
	return removed
}

// Run sweeps on a fixed interval until the context is cancelled.
// Call in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("sweep complete")
			}
		case <-ctx.Done():
			return
		}
	}
}
