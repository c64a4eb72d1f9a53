package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wonny/borsa-screener/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache.internal", Port: "6380", Password: "pw", DB: 2})

	if opts.Addr != "cache.internal:6380" {
		t.Errorf("Addr = %q", opts.Addr)
	}
	if opts.DB != 2 || opts.Password != "pw" {
		t.Errorf("DB/Password not applied: %+v", opts)
	}
	if opts.ClientName != clientName {
		t.Errorf("ClientName = %q", opts.ClientName)
	}
	if opts.ReadTimeout != ioTimeout || opts.DialTimeout != connectTimeout {
		t.Errorf("timeouts not applied: read=%v dial=%v", opts.ReadTimeout, opts.DialTimeout)
	}
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Error("nil client must report disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), WriteRateLimit, "127.0.0.1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != WriteRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", WriteRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	calls := 0
	var got []int
	err = cache.GetOrSet(ctx, "key", &got, time.Minute, func() (interface{}, error) {
		calls++
		return []int{1, 2}, nil
	})
	if err != nil || calls != 1 || len(got) != 2 {
		t.Errorf("GetOrSet() = %v, calls=%d, got=%v", err, calls, got)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"SnapshotKey", SnapshotKey(), "stocks:snapshot"},
		{"PredictionKey", PredictionKey("THYAO"), "prediction:THYAO"},
		{"HistoryKey", HistoryKey("THYAO", 7), "history:THYAO:7d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestRateLimiter_Integration(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" || testing.Short() {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(&config.Config{Redis: config.RedisConfig{Host: os.Getenv("REDIS_HOST"), Port: "6379", Enabled: true}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	limiter := NewRateLimiter(client, "screener-test")
	cfg := RateLimitConfig{Key: "it", Limit: 2, Window: time.Second}
	subject := time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 2; i++ {
		if ok, _, err := limiter.Allow(context.Background(), cfg, subject); err != nil || !ok {
			t.Fatalf("request %d: allowed=%v err=%v", i, ok, err)
		}
	}
	if ok, _, _ := limiter.Allow(context.Background(), cfg, subject); ok {
		t.Error("third request inside the window should be rejected")
	}
}

func TestCache_Integration(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" || testing.Short() {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(&config.Config{Redis: config.RedisConfig{Host: os.Getenv("REDIS_HOST"), Port: "6379", Enabled: true}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "screener-test")
	ctx := context.Background()
	key := PredictionKey(time.Now().Format(time.RFC3339Nano))

	if err := cache.Set(ctx, key, map[string]float64{"lstm": 301}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var got map[string]float64
	if found, err := cache.Get(ctx, key, &got); err != nil || !found || got["lstm"] != 301 {
		t.Fatalf("Get() = %v, %v, %v", found, err, got)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if found, _ := cache.Get(ctx, key, &got); found {
		t.Error("Expected cache miss after Delete")
	}
}
