package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisKV backs the KV port with Redis. Records are written without a TTL;
// they live until the user's data is overwritten.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps the given Redis client.
func NewRedisKV(client *redis.Client) *RedisKV {
	if client == nil {
		panic("storage.NewRedisKV: client is nil")
	}
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}
