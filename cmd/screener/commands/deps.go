package commands

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/wonny/borsa-screener/internal/favorites"
	"github.com/wonny/borsa-screener/internal/forecast"
	"github.com/wonny/borsa-screener/internal/normalize"
	"github.com/wonny/borsa-screener/internal/screenconfig"
	"github.com/wonny/borsa-screener/internal/selection"
	"github.com/wonny/borsa-screener/internal/snapshot"
	"github.com/wonny/borsa-screener/internal/upstream"
	"github.com/wonny/borsa-screener/pkg/config"
	"github.com/wonny/borsa-screener/pkg/database"
	"github.com/wonny/borsa-screener/pkg/httputil"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
	"github.com/wonny/borsa-screener/pkg/redis"
)

// keyPrefix Redis 키 공통 접두사
const keyPrefix = "screener"

// app holds the wired components shared by all commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Recorder

	redis   *redis.Client
	cache   *redis.Cache
	limiter *redis.RateLimiter
	db      *database.DB // postgres 백엔드일 때만

	upstream   *upstream.Client
	normalizer *normalize.Normalizer
	favorites  *favorites.Store
	snapshots  *snapshot.Store
	refresher  *snapshot.Refresher
	engine     *selection.Engine
	charts     *forecast.ChartService
	presets    *screenconfig.Config
}

// newApp builds every component from cfg. Call Close when done.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, source string) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	// 1. Redis (비활성화 시 캐시/제한 모두 no-op)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	a.cache = redis.NewCache(rc, keyPrefix)
	a.limiter = redis.NewRateLimiter(rc, keyPrefix)

	// 2. Upstream client
	httpClient := httputil.New(cfg, log)
	a.upstream = upstream.NewClient(cfg.Upstream, httpClient, a.metrics, log)

	// 3. Normalizer
	a.normalizer = normalize.NewNormalizer(normalize.Options{
		ForecastChangeFallback: cfg.Screener.ForecastChangeFallback,
	}, a.metrics, log.Zerolog())

	// 4. Favorites
	kv, err := a.favoritesKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.favorites, err = favorites.NewStore(ctx, kv, a.metrics, log.Zerolog())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	// 5. Snapshot store + refresher
	a.snapshots = snapshot.NewStore(a.cache, log.Zerolog())
	a.refresher = snapshot.NewRefresher(a.upstream, a.normalizer, a.snapshots, source)

	// 6. Screening engine
	locale, err := language.Parse(cfg.Screener.Locale)
	if err != nil {
		log.WithError(err).Warn("Invalid SCREENER_LOCALE, falling back to tr")
		locale = language.Turkish
	}
	screener := selection.NewScreener(a.favorites, a.metrics, log)
	sorter := selection.NewSorter(locale, a.metrics)
	a.engine = selection.NewEngine(screener, sorter, a.favorites)

	// 7. Forecast chart
	stitcher := forecast.NewStitcher(forecast.Options{
		Location:    cfg.Chart.Location(),
		WindowStart: cfg.Chart.WindowStart,
		WindowEnd:   cfg.Chart.WindowEnd,
		Step:        time.Hour,
	}, a.metrics, log.Zerolog())
	a.charts = forecast.NewChartService(a.upstream, a.cache, a.normalizer, stitcher, cfg.Chart.HistoryDays, log.Zerolog())

	// 8. Presets
	a.presets, err = screenconfig.LoadOrDefault(cfg.Screener.PresetsFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load presets: %w", err)
	}

	return a, nil
}

func (a *app) favoritesKV(ctx context.Context) (favorites.KV, error) {
	switch a.cfg.Favorites.Backend {
	case config.FavoritesBackendMemory:
		return favorites.NewMemoryKV(), nil
	case config.FavoritesBackendRedis:
		return favorites.NewRedisKV(a.redis, keyPrefix)
	case config.FavoritesBackendPostgres:
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		kv := favorites.NewPostgresKV(db.Pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return kv, nil
	default:
		kv, err := favorites.NewFileKV(a.cfg.Favorites.Dir)
		if err != nil {
			return nil, fmt.Errorf("open favorites dir: %w", err)
		}
		return kv, nil
	}
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
