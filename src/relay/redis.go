// Package relay fans broadcasts out to other server instances over
// Redis pub/sub and keeps a short-lived diagnostic trail of recent
// events. The trail is best-effort operational inspection only, never
// a delivery or replay mechanism.
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shopfabric/realtime/config"
	"github.com/shopfabric/realtime/src/events"
	"github.com/shopfabric/realtime/src/hub"
)

// BroadcastTarget is implemented by the Hub to receive relayed events.
type BroadcastTarget interface {
	BroadcastLocal(scope hub.Scope, target string, evt events.Event)
}

// envelope wraps a relayed event with the originating instance ID so
// a node can skip its own published broadcasts.
type envelope struct {
	InstanceID string       `json:"instance_id"`
	Scope      string       `json:"scope"`
	Target     string       `json:"target,omitempty"`
	Event      events.Event `json:"event"`
}

// RedisRelay relays broadcasts between server instances via Redis
// pub/sub and records dispatched events in a capped, expiring list.
type RedisRelay struct {
	client     *redis.Client
	prefix     string
	instanceID string
	target     BroadcastTarget
	logger     zerolog.Logger

	recentSize int
	recentTTL  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// New creates a relay from the Redis section of the service config.
func New(cfg config.RedisConfig, target BroadcastTarget, logger zerolog.Logger) *RedisRelay {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisRelay{
		client:     client,
		prefix:     cfg.Prefix,
		instanceID: uuid.New().String(),
		target:     target,
		logger:     logger.With().Str("component", "redis-relay").Logger(),
		recentSize: cfg.RecentSize,
		recentTTL:  cfg.RecentTTL,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the broadcast channel and begins relaying.
func (r *RedisRelay) Start() error {
	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return err
	}

	channel := r.prefix + "events"
	sub := r.client.Subscribe(r.ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(r.ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.active = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.listen(sub)

	r.logger.Info().
		Str("instance_id", r.instanceID).
		Str("channel", channel).
		Msg("redis relay started")
	return nil
}

// Publish sends a broadcast to all other instances and records it in
// the diagnostic trail.
func (r *RedisRelay) Publish(scope hub.Scope, target string, evt events.Event) error {
	env := envelope{
		InstanceID: r.instanceID,
		Scope:      string(scope),
		Target:     target,
		Event:      evt,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	r.cacheEvent(evt)
	return r.client.Publish(r.ctx, r.prefix+"events", data).Err()
}

// Stop unsubscribes and closes the Redis connection.
func (r *RedisRelay) Stop() error {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	return r.client.Close()
}

// Available reports whether the relay is connected.
func (r *RedisRelay) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// RecentEvents returns up to limit recently dispatched events, newest
// first. Entries vanish when the trail's TTL lapses; callers must not
// treat this as a durable record.
func (r *RedisRelay) RecentEvents(ctx context.Context, limit int) ([]events.Event, error) {
	if limit < 1 || limit > r.recentSize {
		limit = r.recentSize
	}
	raw, err := r.client.LRange(ctx, r.prefix+"recent", 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(raw))
	for _, item := range raw {
		var evt events.Event
		if err := json.Unmarshal([]byte(item), &evt); err != nil {
			r.logger.Warn().Err(err).Msg("skipping undecodable cached event")
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

// cacheEvent appends the event to the capped diagnostic trail. Errors
// are logged and ignored; the trail is best-effort.
func (r *RedisRelay) cacheEvent(evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		r.logger.Warn().Err(err).Msg("event not cacheable")
		return
	}
	key := r.prefix + "recent"
	pipe := r.client.Pipeline()
	pipe.LPush(r.ctx, key, data)
	pipe.LTrim(r.ctx, key, 0, int64(r.recentSize-1))
	pipe.Expire(r.ctx, key, r.recentTTL)
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warn().Err(err).Msg("event trail update failed")
	}
}

// listen reads relayed envelopes and forwards non-self broadcasts to
// the local hub.
func (r *RedisRelay) listen(sub *redis.PubSub) {
	defer r.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handleMessage(msg)
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *RedisRelay) handleMessage(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Error().Err(err).Msg("failed to decode relayed event")
		return
	}

	// Skip broadcasts that originated from this instance.
	if env.InstanceID == r.instanceID {
		return
	}

	r.logger.Debug().
		Str("from_instance", env.InstanceID).
		Str("scope", env.Scope).
		Str("event_type", env.Event.Type).
		Msg("relaying event")

	r.target.BroadcastLocal(hub.Scope(env.Scope), env.Target, env.Event)
}
