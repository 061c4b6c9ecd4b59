package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "presence:online"

// RedisPresenceStore tracks live connections in a single ZSet keyed by
// identity id, scored by the unix time of the last heartbeat. Members that
// stop heartbeating are swept out by the reaper worker.
type RedisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{
		rdb: rdb,
	}
}

// Heartbeat adds/updates the identity in the ZSet with the current timestamp.
func (p *RedisPresenceStore) Heartbeat(ctx context.Context, identityID string) error {
	return p.rdb.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: identityID,
	}).Err()
}

// Drop removes the identity immediately, on clean disconnect.
func (p *RedisPresenceStore) Drop(ctx context.Context, identityID string) error {
	return p.rdb.ZRem(ctx, presenceKey, identityID).Err()
}

// SweepExpired removes members whose last heartbeat is older than the cutoff
// and returns their ids so the caller can flip their profiles offline.
func (p *RedisPresenceStore) SweepExpired(ctx context.Context, olderThan time.Duration) ([]string, error) {
	threshold := strconv.FormatInt(time.Now().Add(-olderThan).Unix(), 10)

	expired, err := p.rdb.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: threshold,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if err := p.rdb.ZRemRangeByScore(ctx, presenceKey, "-inf", threshold).Err(); err != nil {
		return nil, err
	}
	return expired, nil
}
