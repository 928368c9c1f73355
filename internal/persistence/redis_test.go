package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/config"
)

func TestNewRedisConnects(t *testing.T) {
	srv := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(r.Close)

	assert.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, defaultRedisTimeout, r.Client.Options().ReadTimeout)
}

func TestNewRedisReturnsUsableClientWhenUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr, TimeoutMS: 50}, zap.NewNop())
	require.Error(t, err)
	require.NotNil(t, r)
	t.Cleanup(r.Close)
	assert.Equal(t, 50*time.Millisecond, r.Client.Options().DialTimeout)

	_, allowErr := r.ExportLimiter(1).Allow(context.Background(), "user-1")
	assert.Error(t, allowErr, "the limiter surfaces the failure so the handler can fail open")
}

func TestNilRedisLimiterAllows(t *testing.T) {
	var r *Redis

	decision, err := r.ExportLimiter(5).Allow(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Error(t, r.Ping(context.Background()))
}
