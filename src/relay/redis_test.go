package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfabric/realtime/config"
	"github.com/shopfabric/realtime/src/events"
	"github.com/shopfabric/realtime/src/hub"
)

// mockTarget records events forwarded from the relay.
type mockTarget struct {
	mu       sync.Mutex
	received []events.Event
	scopes   []hub.Scope
	targets  []string
}

func (m *mockTarget) BroadcastLocal(scope hub.Scope, target string, evt events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, evt)
	m.scopes = append(m.scopes, scope)
	m.targets = append(m.targets, target)
}

func newTestRelay(target BroadcastTarget) *RedisRelay {
	cfg := config.Default().Redis
	return New(cfg, target, zerolog.Nop())
}

func TestEnvelopeSerialization(t *testing.T) {
	evt := events.New(events.OrderCreated, events.OrderPayload{
		OrderID: "ord-1",
		Status:  "created",
		Total:   15,
	})
	evt.Timestamp = evt.Timestamp.Truncate(time.Millisecond)

	env := envelope{
		InstanceID: "instance-abc",
		Scope:      string(hub.ScopeRoom),
		Target:     "admins",
		Event:      evt,
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, env.InstanceID, decoded.InstanceID)
	assert.Equal(t, "room", decoded.Scope)
	assert.Equal(t, "admins", decoded.Target)
	assert.Equal(t, evt.ID, decoded.Event.ID)

	payload, ok := decoded.Event.Payload.(events.OrderPayload)
	require.True(t, ok)
	assert.Equal(t, "ord-1", payload.OrderID)
}

func TestHandleMessageSkipsOwnInstance(t *testing.T) {
	target := &mockTarget{}
	r := newTestRelay(target)

	env := envelope{
		InstanceID: r.instanceID,
		Scope:      string(hub.ScopeAll),
		Event:      events.New(events.OrderCreated, nil),
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	r.handleMessage(&redis.Message{Payload: string(data)})

	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Empty(t, target.received, "own broadcasts must not loop back")
}

func TestHandleMessageForwardsRemoteEvents(t *testing.T) {
	target := &mockTarget{}
	r := newTestRelay(target)

	env := envelope{
		InstanceID: "other-node",
		Scope:      string(hub.ScopeRoom),
		Target:     "admins",
		Event:      events.New(events.InventoryLow, events.InventoryPayload{SKU: "sku-3", Quantity: 1}),
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	r.handleMessage(&redis.Message{Payload: string(data)})

	target.mu.Lock()
	defer target.mu.Unlock()
	require.Len(t, target.received, 1)
	assert.Equal(t, hub.ScopeRoom, target.scopes[0])
	assert.Equal(t, "admins", target.targets[0])
	assert.Equal(t, events.InventoryLow, target.received[0].Type)
}

func TestHandleMessageIgnoresGarbage(t *testing.T) {
	target := &mockTarget{}
	r := newTestRelay(target)

	assert.NotPanics(t, func() {
		r.handleMessage(&redis.Message{Payload: "not json"})
	})
	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Empty(t, target.received)
}

func TestUnavailableUntilStarted(t *testing.T) {
	r := newTestRelay(&mockTarget{})
	assert.False(t, r.Available())
}

// The recent-event trail is diagnostic only: this test covers the
// error path without a live Redis and deliberately asserts nothing
// about durability of cached entries.
func TestRecentEventsWithoutRedis(t *testing.T) {
	cfg := config.Default().Redis
	cfg.Addr = "localhost:1" // nothing listens here
	r := New(cfg, &mockTarget{}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := r.RecentEvents(ctx, 10)
	assert.Error(t, err)
}
