package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/borsa-screener/internal/upstream"
	"github.com/wonny/borsa-screener/pkg/database"
	"github.com/wonny/borsa-screener/pkg/httputil"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
	"github.com/wonny/borsa-screener/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "외부 연결 점검",
	Long: `설정을 로드하고 외부 의존성 연결을 차례로 점검합니다.

이 명령어는:
- config 로드 및 검증
- 업스트림 데이터 서비스 (/stocks/symbols)
- Redis Ping (REDIS_ENABLED=true 일 때)
- PostgreSQL Health Check + Pool 통계 (DATABASE_URL 이 있을 때)

Example:
  go run ./cmd/screener check
  go run ./cmd/screener check --env production`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Borsa Screener Connection Check ===")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	log := logger.New(cfg)
	fmt.Printf("✅ Config loaded (ENV: %s, favorites: %s)\n\n", cfg.Env, cfg.Favorites.Backend)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	// Upstream
	fmt.Printf("Checking upstream (%s)...\n", cfg.Upstream.BaseURL)
	client := upstream.NewClient(cfg.Upstream, httputil.New(cfg, log).DisableRetry(), metrics.New(), log)
	start := time.Now()
	symbols, err := client.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("❌ Upstream check failed: %w", err)
	}
	fmt.Printf("✅ Upstream reachable: %d symbols (%v)\n\n", len(symbols), time.Since(start).Round(time.Millisecond))

	// Redis
	if cfg.Redis.Enabled {
		fmt.Printf("Checking redis (%s:%s)...\n", cfg.Redis.Host, cfg.Redis.Port)
		rc, err := redis.New(cfg)
		if err != nil {
			return fmt.Errorf("❌ Redis check failed: %w", err)
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("❌ Redis ping failed: %w", err)
		}
		fmt.Println("✅ Redis ping successful")
		fmt.Println()
	} else {
		fmt.Println("⏭️  Redis disabled (REDIS_ENABLED=false)")
		fmt.Println()
	}

	// PostgreSQL
	if cfg.Database.URL == "" {
		fmt.Println("⏭️  Database not configured (DATABASE_URL empty)")
	} else {
		fmt.Printf("Checking database (%s)...\n", maskPassword(cfg.Database.URL))
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("❌ Failed to connect to database: %w", err)
		}
		defer db.Close()

		status, err := db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ Health check failed: %w", err)
		}
		fmt.Println("✅ Health Check Results:")
		fmt.Printf("   Healthy: %v\n", status.Healthy)
		fmt.Printf("   Response Time: %v\n", status.ResponseTime)
		fmt.Println("📊 Connection Pool Statistics:")
		fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
		fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
		fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
		fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}

// maskPassword hides the password component of a connection URL
// 파싱 실패 시 원문 대신 전체를 가림
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
