package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata" // 컨테이너에 zoneinfo 없을 때 대비

	"github.com/joho/godotenv"
)

// Favorites backends
const (
	FavoritesBackendFile     = "file"
	FavoritesBackendRedis    = "redis"
	FavoritesBackendPostgres = "postgres"
	FavoritesBackendMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream data service
	Upstream UpstreamConfig

	// Favorites persistence
	Favorites FavoritesConfig

	// Screener behaviour
	Screener ScreenerConfig

	// Chart stitching
	Chart ChartConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // 비어있으면 stdout 만

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string

	// Scheduler
	RefreshSchedule string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// UpstreamConfig holds the prediction/market data service settings
type UpstreamConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64 // 초당 요청 수 (batch pacing)
	BatchSize int     // 상세 조회 묶음 크기
}

// FavoritesConfig selects the favorites KV backend
type FavoritesConfig struct {
	Backend string // file, redis, postgres, memory
	Dir     string // file backend 저장 위치
}

// ScreenerConfig holds screening and sorting options
type ScreenerConfig struct {
	Locale                 string // 문자열 정렬 collation (BCP 47)
	ForecastChangeFallback bool   // daily_change 없을 때 lstm_change_percent 사용
	PresetsFile            string // 비어있으면 내장 프리셋
}

// ChartConfig holds forecast stitching options
type ChartConfig struct {
	Timezone    string
	WindowStart int // 거래시간 시작 (포함)
	WindowEnd   int // 거래시간 종료 (미포함)
	HistoryDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit env file; empty path searches the defaults
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		// Try multiple paths for .env file
		loadEnvFile()
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Upstream: UpstreamConfig{
			BaseURL:   getEnv("UPSTREAM_BASE_URL", "http://localhost:8000"),
			Timeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", "30s"),
			RPS:       getEnvAsFloat("UPSTREAM_RPS", 5),
			BatchSize: getEnvAsInt("UPSTREAM_BATCH_SIZE", 10),
		},

		Favorites: FavoritesConfig{
			Backend: getEnv("FAVORITES_BACKEND", FavoritesBackendFile),
			Dir:     getEnv("FAVORITES_DIR", "data"),
		},

		Screener: ScreenerConfig{
			Locale:                 getEnv("SCREENER_LOCALE", "tr"),
			ForecastChangeFallback: getEnvAsBool("SCREENER_FORECAST_CHANGE_FALLBACK", true),
			PresetsFile:            getEnv("SCREENER_PRESETS_FILE", ""),
		},

		Chart: ChartConfig{
			Timezone:    getEnv("CHART_TIMEZONE", "Europe/Istanbul"),
			WindowStart: getEnvAsInt("CHART_WINDOW_START", 10),
			WindowEnd:   getEnvAsInt("CHART_WINDOW_END", 18),
			HistoryDays: getEnvAsInt("CHART_HISTORY_DAYS", 7),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */5 10-18 * * 1-5"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Favorites.Backend {
	case FavoritesBackendFile, FavoritesBackendMemory:
	case FavoritesBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("FAVORITES_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case FavoritesBackendPostgres:
		// Database URL is required only for the postgres backend
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when FAVORITES_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("FAVORITES_BACKEND must be one of: file, redis, postgres, memory")
	}

	if c.Chart.WindowStart < 0 || c.Chart.WindowEnd > 24 || c.Chart.WindowStart >= c.Chart.WindowEnd {
		return fmt.Errorf("chart window must satisfy 0 <= CHART_WINDOW_START < CHART_WINDOW_END <= 24 (got %d-%d)",
			c.Chart.WindowStart, c.Chart.WindowEnd)
	}

	if _, err := time.LoadLocation(c.Chart.Timezone); err != nil {
		return fmt.Errorf("invalid CHART_TIMEZONE %q: %w", c.Chart.Timezone, err)
	}

	if c.Upstream.BatchSize <= 0 {
		return fmt.Errorf("UPSTREAM_BATCH_SIZE must be positive")
	}
	if c.Upstream.RPS <= 0 {
		return fmt.Errorf("UPSTREAM_RPS must be positive")
	}

	return nil
}

// Location returns the chart timezone; validate guarantees it loads
func (c ChartConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
