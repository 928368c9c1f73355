package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/config"
)

// Redis wraps the go-redis client backing the export limiter.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and pings it once. The returned wrapper is usable
// even when the ping fails; the caller decides whether that is fatal. Command
// timeouts are kept short so a slow Redis degrades to the limiter's fail-open
// path instead of stalling exports.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	r := &Redis{Client: client}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return r, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return r, nil
}

const defaultRedisTimeout = 200 * time.Millisecond

// ExportLimiter binds a per-user export limiter to this client.
func (r *Redis) ExportLimiter(limit int, opts ...ExportLimiterOption) *ExportLimiter {
	if r == nil {
		return NewExportLimiter(nil, limit, opts...)
	}
	return NewExportLimiter(r.Client, limit, opts...)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity for readiness.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
