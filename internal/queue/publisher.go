package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes feed events onto the stream for the workers.
type Publisher interface {
	Publish(ctx context.Context, event FeedEvent) error
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event FeedEvent) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		MaxLen: 10000,
		Approx: true,
		Values: event.ToMap(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
