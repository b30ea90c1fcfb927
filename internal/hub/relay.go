package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay extends a local hub across instances: every broadcast is also
// published on a Redis channel, and events published by other instances are
// replayed into the local registry. The origin id keeps an instance from
// delivering its own events twice.
type RedisRelay struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewRedisRelay wraps the hub with cross-instance delivery on the given
// pub/sub channel.
func NewRedisRelay(h *Hub, client *redis.Client, channel string, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{
		hub:     h,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Broadcast delivers locally first, then publishes for the other instances.
// A publish failure is logged and swallowed: local clients already got the
// event, and the relay is best-effort like every other delivery path.
func (r *RedisRelay) Broadcast(ctx context.Context, event Event) {
	r.hub.Broadcast(ctx, event)

	payload, err := json.Marshal(event.Payload())
	if err != nil {
		r.logger.Error("marshal relay payload", zap.String("event", event.Name()), zap.Error(err))
		return
	}
	data, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: event.Name(), Payload: payload})
	if err != nil {
		r.logger.Error("marshal relay envelope", zap.String("event", event.Name()), zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Warn("relay publish failed", zap.String("event", event.Name()), zap.Error(err))
	}
}

// Run subscribes to the relay channel and replays remote events into the
// local hub until the context is canceled.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("bad relay message", zap.Error(err))
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.hub.broadcastRaw(env.Event, env.Payload)
		}
	}
}
