package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Analytics AnalyticsConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN                string
	ApplicationName    string
	MaxConns           int32
	MinConns           int32
	RunMigrations      bool
	MigrationsDir      string
	ConnMaxIdleSec     int32
	ConnMaxLifeSec     int32
	StatementTimeoutMS int
	// AllowWrites lifts the read-only session default; migrations need it.
	AllowWrites bool
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TimeoutMS int
	// Required makes an unreachable Redis fatal at startup instead of leaving
	// the export limiter to fail open.
	Required bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig holds the shared secret used to verify identity tokens issued by the
// external auth service.
type AuthConfig struct {
	JWTSecret string
}

// AnalyticsConfig tunes reporting defaults.
type AnalyticsConfig struct {
	Timezone         string
	DefaultTrendDays int
	MaxRangeDays     int
	SLATargetPct     float64
	DefaultPageSize  int
}

// RateLimitConfig bounds export requests per user.
type RateLimitConfig struct {
	ExportPerMinute int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	target, err := strconv.ParseFloat(getEnv("ANALYTICS_SLA_TARGET_PCT", "90"), 64)
	if err != nil || target < 0 || target > 100 {
		return nil, fmt.Errorf("invalid ANALYTICS_SLA_TARGET_PCT: %q", os.Getenv("ANALYTICS_SLA_TARGET_PCT"))
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-analytics"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:                os.Getenv("POSTGRES_DSN"),
			ApplicationName:    getEnv("APP_NAME", "complaint-analytics"),
			MaxConns:           int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:           int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:      getEnvAsBool("POSTGRES_RUN_MIGRATIONS", false),
			MigrationsDir:      getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			StatementTimeoutMS: getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_MS", 30000),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			TimeoutMS: getEnvAsInt("REDIS_TIMEOUT_MS", 200),
			Required:  getEnvAsBool("REDIS_REQUIRED", false),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("APP_ENV", "development") == "development",
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Analytics: AnalyticsConfig{
			Timezone:         getEnv("ANALYTICS_TIMEZONE", "UTC"),
			DefaultTrendDays: getEnvAsInt("ANALYTICS_DEFAULT_TREND_DAYS", 30),
			MaxRangeDays:     getEnvAsInt("ANALYTICS_MAX_RANGE_DAYS", 400),
			SLATargetPct:     target,
			DefaultPageSize:  getEnvAsInt("ANALYTICS_DEFAULT_PAGE_SIZE", 50),
		},
		RateLimit: RateLimitConfig{
			ExportPerMinute: getEnvAsInt("RATE_LIMIT_EXPORT_PER_MINUTE", 10),
		},
	}

	if _, err := cfg.Analytics.Location(); err != nil {
		return nil, err
	}
	if cfg.Analytics.DefaultTrendDays <= 0 {
		return nil, fmt.Errorf("invalid ANALYTICS_DEFAULT_TREND_DAYS: %d", cfg.Analytics.DefaultTrendDays)
	}
	if cfg.Analytics.MaxRangeDays < cfg.Analytics.DefaultTrendDays {
		return nil, fmt.Errorf("invalid ANALYTICS_MAX_RANGE_DAYS: %d is below the default trend length %d",
			cfg.Analytics.MaxRangeDays, cfg.Analytics.DefaultTrendDays)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the reporting time zone used for calendar-day bucketing.
func (a AnalyticsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
