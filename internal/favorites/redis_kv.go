package favorites

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/borsa-screener/pkg/redis"
)

// RedisKV stores documents under <prefix>:kv:<key>, without expiry
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV requires an enabled client
func NewRedisKV(client *redis.Client, prefix string) (*RedisKV, error) {
	if client == nil || !client.Enabled() {
		return nil, fmt.Errorf("redis favorites backend requires an enabled redis client")
	}
	return &RedisKV{client: client, prefix: prefix}, nil
}

func (r *RedisKV) key(key string) string {
	return fmt.Sprintf("%s:kv:%s", r.prefix, key)
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Redis().Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Redis().Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
