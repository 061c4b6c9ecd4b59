package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"courier/internal/core/domain"
)

// RedisBlobStore keeps uploaded images in Redis hashes. Good enough for
// avatar and chat photos at the current size cap; swap for object storage
// if payloads grow.
type RedisBlobStore struct {
	rdb *redis.Client
}

func NewRedisBlobStore(rdb *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{
		rdb: rdb,
	}
}

func (b *RedisBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	err := b.rdb.HSet(ctx, "blob:"+key,
		"data", data,
		"content_type", contentType,
	).Err()
	if err != nil {
		return "", err
	}
	return "/blobs/" + key, nil
}

func (b *RedisBlobStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	fields, err := b.rdb.HGetAll(ctx, "blob:"+key).Result()
	if err != nil {
		return nil, "", err
	}
	data, ok := fields["data"]
	if !ok {
		return nil, "", domain.ErrBlobNotFound
	}
	return []byte(data), fields["content_type"], nil
}
