package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshots persists each collection snapshot as a plain redis string
// under its fixed key.
type RedisSnapshots struct {
	client *redis.Client
}

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

func (r *RedisSnapshots) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMissing
	}
	if err != nil {
		return nil, errors.Wrap(err, "client.Get failed: ")
	}
	return data, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "client.Set failed: ")
	}
	return nil
}
