package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/borsa-screener/pkg/config"
)

const (
	connectTimeout = 5 * time.Second
	ioTimeout      = 2 * time.Second // 캐시/제한 호출은 짧아야 함 (초과 시 캐시 미스로 처리)
	clientName     = "borsa-screener"
)

// Client wraps the Redis client; a disabled client turns every helper into a no-op
// ⭐ SSOT: Redis 연결은 이 패키지에서만 생성
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// Options builds go-redis options from config without connecting
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  connectTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// New connects to Redis. REDIS_ENABLED=false returns a disabled client.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(Options(cfg.Redis))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Close closes the connection; a disabled client has nothing to close
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether Redis is in use. A nil client is disabled.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Ping is probed by /health; a disabled client is always healthy
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Redis returns the underlying client for scripts and raw commands
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
