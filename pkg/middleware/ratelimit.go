package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinetrack/watchlist/pkg/logger"
)

// RateLimiter tracks request counts per key in redis over a fixed window.
type RateLimiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(rdb *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		requests: requests,
		window:   window,
	}
}

// Allow increments the counter for key and reports whether the caller is
// still under the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(l.requests), nil
}

// Limit guards a route with the rate limiter keyed by client IP. Redis
// failures are logged and the request is allowed through (fail open).
func (l *RateLimiter) Limit(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ":" + ClientIP(r)

			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"statusCode":429,"error":"Too Many Requests","message":"Too many requests. Please try again later.","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
