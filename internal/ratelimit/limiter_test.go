package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/ratelimit"
)

func setupLimiter(t *testing.T) (*miniredis.Miniredis, *ratelimit.Limiter) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	return s, ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: s.Addr()}))
}

func TestLimiter_AllowsUpToRate(t *testing.T) {
	_, l := setupLimiter(t)
	ctx := context.Background()
	cfg := ratelimit.LimitConfig{Rate: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := l.Check(ctx, ratelimit.ScopeOperator, "op-1", cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should pass", i)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Check(ctx, ratelimit.ScopeOperator, "op-1", cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, 0)
}

func TestLimiter_WindowResets(t *testing.T) {
	s, l := setupLimiter(t)
	ctx := context.Background()
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	d, _ := l.Check(ctx, ratelimit.ScopeSession, "s-1", cfg)
	assert.True(t, d.Allowed)
	d, _ = l.Check(ctx, ratelimit.ScopeSession, "s-1", cfg)
	assert.False(t, d.Allowed)

	s.FastForward(2 * time.Second)

	d, err := l.Check(ctx, ratelimit.ScopeSession, "s-1", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_RedisDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	l := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1}))
	s.Close()

	_, err = l.Check(context.Background(), ratelimit.ScopeOperator, "op-1", ratelimit.LimitConfig{Rate: 1, Window: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrRedisUnavailable)
}
