package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const exportLimitKeyPrefix = "analytics:export:"

// LimitDecision is the outcome of one rate-limit check.
type LimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// ExportLimiter is a Redis fixed-window counter bounding exports per user.
// Analytics reads are never cached; only the export counter lives in Redis.
type ExportLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// ExportLimiterOption configures an ExportLimiter.
type ExportLimiterOption func(*ExportLimiter)

// WithWindow overrides the one-minute window.
func WithWindow(window time.Duration) ExportLimiterOption {
	return func(l *ExportLimiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithClock overrides the clock used to pick the window bucket.
func WithClock(now func() time.Time) ExportLimiterOption {
	return func(l *ExportLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewExportLimiter returns a limiter allowing limit exports per window. A limit of
// zero or less disables limiting.
func NewExportLimiter(client *redis.Client, limit int, opts ...ExportLimiterOption) *ExportLimiter {
	l := &ExportLimiter{client: client, limit: limit, window: time.Minute, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Allow consumes one slot for userID in the current window.
func (l *ExportLimiter) Allow(ctx context.Context, userID string) (LimitDecision, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return LimitDecision{Allowed: true, Limit: 0, Remaining: -1}, nil
	}

	now := l.now()
	bucket := now.Truncate(l.window)
	key := fmt.Sprintf("%s%s:%d", exportLimitKeyPrefix, userID, bucket.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return LimitDecision{}, fmt.Errorf("export limiter: %w", err)
	}

	count := int(incr.Val())
	decision := LimitDecision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: l.limit - count,
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		decision.RetryAfter = bucket.Add(l.window).Sub(now)
	}
	return decision, nil
}
