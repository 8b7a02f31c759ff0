package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"fxcache/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher announces finished synchronizations on a pub/sub channel.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: client, channel: channel}
}

// InitRedisPublisher connects to addr and checks the connection.
func InitRedisPublisher(ctx context.Context, options *redis.Options, channel string) (*RedisPublisher, error) {
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", options.Addr, err)
	}
	return NewRedisPublisher(client, channel), nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}
	if err = p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sync event to %q: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }
