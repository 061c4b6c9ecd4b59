package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisChangeFeed broadcasts invalidation events over Redis pub/sub. Events
// carry no payload; subscribers re-query their backing store on each tick.
type RedisChangeFeed struct {
	log *slog.Logger
	rdb *redis.Client
}

func NewRedisChangeFeed(log *slog.Logger, rdb *redis.Client) *RedisChangeFeed {
	return &RedisChangeFeed{
		log: log,
		rdb: rdb,
	}
}

func (f *RedisChangeFeed) Publish(ctx context.Context, topic string) error {
	return f.rdb.Publish(ctx, "feed:"+topic, "1").Err()
}

// Subscribe opens a pub/sub channel for the topic and forwards notifications
// as empty ticks. Pending ticks coalesce: a slow consumer sees at most one
// buffered tick, which is enough since every tick triggers a full re-query.
func (f *RedisChangeFeed) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	pubsub := f.rdb.Subscribe(ctx, "feed:"+topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		for range pubsub.Channel() {
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	release := func() {
		if err := pubsub.Close(); err != nil {
			f.log.Error("changefeed - release - close failed",
				slog.String("topic", topic),
				slog.Any("error", err))
		}
	}
	return events, release, nil
}
