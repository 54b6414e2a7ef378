package hub

import (
	"errors"
	"testing"
	"time"
)

func TestRegisterAndListActive(t *testing.T) {
	h := newTestHub()

	registerConn(t, h, "c1", "alice", "admin")
	registerConn(t, h, "c2", "bob", "customer")

	infos := h.ListActive()
	if len(infos) != 2 {
		t.Fatalf("expected 2 active connections, got %d", len(infos))
	}
	for _, info := range infos {
		if info.ConnectedAt.IsZero() || info.LastActivity.IsZero() {
			t.Errorf("connection %s missing timestamps", info.ID)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")

	_, err := h.Register("c1", "alice", "admin", newMockConn())
	if !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}
	if h.Count() != 1 {
		t.Errorf("duplicate register must not change count, got %d", h.Count())
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")

	h.Unregister("c1")
	if h.Count() != 0 {
		t.Fatalf("expected 0 connections, got %d", h.Count())
	}

	// Removing an unknown id is a no-op: disconnects race with eviction.
	h.Unregister("c1")
	h.Unregister("never-existed")
}

func TestRegisterUnregisterThenTouchIsNoop(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")
	h.Unregister("c1")

	// None of these may error or panic.
	h.Touch("c1")
	h.RemoveFromRoom("admins", "c1")

	if h.Count() != 0 {
		t.Errorf("expected empty registry, got %d", h.Count())
	}
}

func TestTouchUpdatesLastActivity(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")

	before := h.ConnectionInfo("c1").LastActivity
	time.Sleep(5 * time.Millisecond)
	h.Touch("c1")
	after := h.ConnectionInfo("c1").LastActivity

	if !after.After(before) {
		t.Errorf("touch did not advance lastActivity: %v -> %v", before, after)
	}
}

func TestStatsByRole(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")
	registerConn(t, h, "c2", "bob", "customer")
	registerConn(t, h, "c3", "carol", "customer")

	stats := h.StatsByRole()
	if stats["admin"] != 1 || stats["customer"] != 2 {
		t.Errorf("unexpected role stats: %v", stats)
	}
}

func TestListActiveIsSnapshot(t *testing.T) {
	h := newTestHub()
	registerConn(t, h, "c1", "alice", "admin")
	registerConn(t, h, "c2", "bob", "customer")

	infos := h.ListActive()
	h.Unregister("c1")
	h.Unregister("c2")

	// The snapshot taken before the unregisters is unaffected.
	if len(infos) != 2 {
		t.Errorf("snapshot mutated, got %d entries", len(infos))
	}
}
