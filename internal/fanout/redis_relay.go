package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const relayPrefix = "taskboard:"

// RedisRelay shares envelopes between server instances. Deliver publishes
// to redis; Run receives from every instance, this one included, and hands
// envelopes to the local hub.
type RedisRelay struct {
	client *redis.Client
	local  *Hub
	log    zerolog.Logger
	ready  chan struct{}
}

var _ Transport = (*RedisRelay)(nil)

// NewRedisRelay connects using a redis:// URL.
func NewRedisRelay(ctx context.Context, redisURL string, local *Hub, log zerolog.Logger) (*RedisRelay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisRelayWithClient(client, local, log), nil
}

func NewRedisRelayWithClient(client *redis.Client, local *Hub, log zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		client: client,
		local:  local,
		log:    log.With().Str("component", "redis_relay").Logger(),
		ready:  make(chan struct{}),
	}
}

func (r *RedisRelay) Deliver(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, relayPrefix+env.Channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", env.Channel, err)
	}
	return nil
}

// Ready is closed once Run holds its subscription.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run blocks until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, relayPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe relay: %w", err)
	}
	close(r.ready)
	r.log.Info().Msg("relay subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("malformed relay message")
				continue
			}
			env.Channel = strings.TrimPrefix(msg.Channel, relayPrefix)
			_ = r.local.Deliver(ctx, env)
		}
	}
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
