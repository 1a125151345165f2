package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// DefaultChannel is the Redis channel booking events are published on.
const DefaultChannel = "rehab:bookings"

// RedisPublisher forwards envelopes to a Redis pub/sub channel.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
	logger  *logging.Logger
}

// NewRedisPublisher creates a publisher. An empty channel uses DefaultChannel.
func NewRedisPublisher(client redis.Cmdable, channel string, logger *logging.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Channel returns the channel being published to.
func (p *RedisPublisher) Channel() string { return p.channel }

// Publish sends env as JSON.
func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("events: redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Handle publishes env and logs failures; a lost notification never fails
// the booking that caused it.
func (p *RedisPublisher) Handle(ctx context.Context, env Envelope) {
	if err := p.Publish(ctx, env); err != nil {
		p.logger.Warn("booking event not published", "event_id", env.EventID.String(), "error", err)
	}
}
