package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/borsa-screener/internal/api"
	"github.com/wonny/borsa-screener/internal/api/handlers"
	"github.com/wonny/borsa-screener/internal/snapshot"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 시작 시 종목 스냅샷 1회 갱신
- 스크리닝/차트/즐겨찾기 엔드포인트 제공
- --with-scheduler 시 백그라운드 작업 동시 실행

Endpoints:
  GET    /health                      - Health check
  GET    /metrics                     - Prometheus metrics
  POST   /api/stocks/screen           - 스크리닝
  GET    /api/stocks/{symbol}/chart   - 예측 차트
  GET    /api/presets                 - 프리셋 목록
  GET    /api/favorites               - 즐겨찾기 목록
  POST   /api/favorites/{symbol}/toggle
  PUT    /api/favorites/{symbol}
  DELETE /api/favorites/{symbol}
  GET    /api/jobs                    - 작업 상태 (--with-scheduler)

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
	apiSource        string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러를 같은 프로세스에서 실행")
	apiCmd.Flags().StringVar(&apiSource, "source", snapshot.SourceUniverse, "업스트림 소스 (universe|filtered)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Borsa Screener API Server ===")

	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":           cfg.Port,
		"env":            cfg.Env,
		"source":         apiSource,
		"with_scheduler": apiWithScheduler,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire components
	a, err := newApp(ctx, cfg, log, apiSource)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Initial snapshot (실패해도 서버는 시작, /health 는 degraded)
	refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if snap, err := a.refresher.Refresh(refreshCtx); err != nil {
		log.WithError(err).Warn("Initial snapshot refresh failed")
	} else {
		log.WithField("records", len(snap.Records)).Info("Initial snapshot loaded")
	}
	cancel()

	// 5. Create handlers
	presetsHandler, err := handlers.NewPresetsHandler(a.presets)
	if err != nil {
		return fmt.Errorf("create presets handler: %w", err)
	}
	h := api.Handlers{
		Screen:    handlers.NewScreenHandler(a.snapshots, a.engine, a.presets, log),
		Presets:   presetsHandler,
		Chart:     handlers.NewChartHandler(a.charts, log),
		Favorites: handlers.NewFavoritesHandler(a.favorites, log),
	}

	// 6. Optional in-process scheduler
	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		h.Jobs = handlers.NewJobsHandler(sched)
	}

	// 7. Create router
	deps := api.RouterDeps{
		Snapshots:   a.snapshots,
		RateLimiter: a.limiter,
		Logger:      log,
	}
	if cfg.MetricsEnabled {
		deps.Metrics = a.metrics
	}
	deps.Backends = map[string]api.Pinger{}
	if a.redis.Enabled() {
		deps.Backends["redis"] = a.redis
	}
	if a.db != nil {
		deps.Backends["postgres"] = a.db
	}
	router := api.NewRouter(h, deps)

	// 8. Create server
	server := api.New(cfg, log, router)

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  POST /api/stocks/screen")
	fmt.Println("  GET  /api/stocks/{symbol}/chart")
	fmt.Println("  GET  /api/presets")
	fmt.Println("  GET  /api/favorites")
	fmt.Println("\nPress Ctrl+C to stop")

	// 9. Serve until signal
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return err
	}

	log.Info("Server exited")
	return nil
}
