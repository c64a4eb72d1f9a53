package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/borsa-screener/internal/api/handlers"
	"github.com/wonny/borsa-screener/pkg/database"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
	"github.com/wonny/borsa-screener/pkg/redis"
)

// Handlers groups the endpoint handlers. Jobs may be nil when the
// scheduler does not run in-process.
type Handlers struct {
	Screen    *handlers.ScreenHandler
	Presets   *handlers.PresetsHandler
	Chart     *handlers.ChartHandler
	Favorites *handlers.FavoritesHandler
	Jobs      *handlers.JobsHandler
}

// Pinger is a backend probed by /health (redis, postgres)
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolReporter is a backend that also exposes connection pool statistics
type PoolReporter interface {
	Stats() database.PoolStats
}

// healthPingTimeout 백엔드별 헬스 체크 제한 시간
const healthPingTimeout = 2 * time.Second

// RouterDeps are the non-handler collaborators of the router
type RouterDeps struct {
	Snapshots   handlers.SnapshotReader
	Backends    map[string]Pinger
	Metrics     *metrics.Recorder
	RateLimiter *redis.RateLimiter // nil 이면 제한 없음
	Logger      *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.Snapshots, deps.Backends)).Methods("GET")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Screening
	api.HandleFunc("/stocks/screen", h.Screen.Screen).Methods("POST")
	api.HandleFunc("/stocks/{symbol}/chart", h.Chart.GetChart).Methods("GET")
	api.HandleFunc("/presets", h.Presets.List).Methods("GET")

	// Favorites
	api.HandleFunc("/favorites", h.Favorites.List).Methods("GET")
	api.HandleFunc("/favorites/{symbol}/toggle", h.Favorites.Toggle).Methods("POST")
	api.HandleFunc("/favorites/{symbol}", h.Favorites.Add).Methods("PUT")
	api.HandleFunc("/favorites/{symbol}", h.Favorites.Remove).Methods("DELETE")

	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.List).Methods("GET")
	}

	if deps.RateLimiter != nil {
		api.Use(rateLimitMiddleware(deps.RateLimiter, deps.Logger))
	}

	// Apply middleware
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}

// healthCheckHandler returns server health, snapshot freshness and backend reachability.
// 백엔드 장애는 degraded 로만 표시 (캐시/제한은 없어도 동작)
func healthCheckHandler(snapshots handlers.SnapshotReader, backends map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "borsa-screener-api",
		}
		if snapshots != nil {
			if snap, ok := snapshots.Latest(r.Context()); ok {
				body["snapshot"] = map[string]interface{}{
					"records":     len(snap.Records),
					"source":      snap.Source,
					"updated_at":  snap.UpdatedAt,
					"age_seconds": int(snap.Age(time.Now()).Seconds()),
				}
			} else {
				body["status"] = "degraded"
				body["snapshot"] = nil
			}
		}

		if len(backends) > 0 {
			results := make(map[string]string, len(backends))
			pools := make(map[string]database.PoolStats)
			for name, p := range backends {
				ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
				err := p.Ping(ctx)
				cancel()
				if err != nil {
					results[name] = err.Error()
					body["status"] = "degraded"
					continue
				}
				results[name] = "ok"
				if pr, ok := p.(PoolReporter); ok {
					pools[name] = pr.Stats()
				}
			}
			body["backends"] = results
			if len(pools) > 0 {
				body["pools"] = pools
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies per-client sliding window limits.
// 조회(GET)와 변경 요청은 한도가 다름; Redis 장애 시 통과 (fail open)
func rateLimitMiddleware(limiter *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := redis.WriteRateLimit
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				cfg = redis.ReadRateLimit
			}

			allowed, remaining, err := limiter.Allow(r.Context(), cfg, clientAddr(r))
			if err != nil {
				log.WithError(err).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr returns the first X-Forwarded-For hop or the remote host
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
