package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Scope string

const (
	ScopeOperator Scope = "operator"
	ScopeSession  Scope = "session"
)

type Decision struct {
	Scope      Scope
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter int // seconds
	Allowed    bool
}

type LimitConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// incrScript increments the window counter and arms the expiry on first hit.
var incrScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return {current, redis.call("PTTL", KEYS[1])}
`)

type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Key builds the redis key for a scope and identifier.
func Key(scope Scope, id string) string {
	return fmt.Sprintf("rl:%s:%s", scope, id)
}

// Check applies a fixed window counter rooted at the first request in the window.
func (l *Limiter) Check(ctx context.Context, scope Scope, id string, cfg LimitConfig) (*Decision, error) {
	res, err := incrScript.Run(ctx, l.client, []string{Key(scope, id)}, cfg.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		return nil, ErrRedisUnavailable
	}
	count, ttlMs := int(res[0]), res[1]
	if ttlMs < 0 {
		ttlMs = cfg.Window.Milliseconds()
	}

	remaining := cfg.Rate - count
	if remaining < 0 {
		remaining = 0
	}
	reset := time.Duration(ttlMs) * time.Millisecond

	return &Decision{
		Scope:      scope,
		Limit:      cfg.Rate,
		Remaining:  remaining,
		Reset:      time.Now().Add(reset),
		RetryAfter: int((reset + time.Second - 1) / time.Second),
		Allowed:    count <= cfg.Rate,
	}, nil
}
