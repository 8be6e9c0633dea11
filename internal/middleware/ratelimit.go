package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/metrics"
	"github.com/technosupport/ts-console/internal/ratelimit"
)

// RateLimit limits an authenticated route per operator. It must run after
// JWTAuth. Redis failures fail open.
func RateLimit(l *ratelimit.Limiter, cfg ratelimit.LimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := GetAuthContext(r.Context())
			if l == nil || !ok || cfg.Rate <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := l.Check(r.Context(), ratelimit.ScopeOperator, ac.OperatorID, cfg)
			if errors.Is(err, ratelimit.ErrRedisUnavailable) {
				log.Ctx(r.Context()).Warn().Err(err).Msg("rate limit redis error, failing open")
				metrics.RateLimitTotal.WithLabelValues(string(ratelimit.ScopeOperator), "error").Inc()
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				log.Ctx(r.Context()).Error().Err(err).Msg("rate limit error")
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitHeaders(w, decision)
			if !decision.Allowed {
				metrics.RateLimitTotal.WithLabelValues(string(decision.Scope), "denied").Inc()
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			metrics.RateLimitTotal.WithLabelValues(string(decision.Scope), "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}
