package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/audit"
	"github.com/ealicense/license-server-go/internal/config"
	licenseredis "github.com/ealicense/license-server-go/internal/redis"
)

const rateLimitKeyPrefix = "ratelimit:"

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// Limiter decides whether another request for key fits in the window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64)
}

// RedisRateLimiter is a sliding window limiter shared by every instance.
// It fails open: a Redis outage must not lock EAs out of their licenses.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, window: window}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := time.Now().Unix()
	windowSecs := int64(rl.window.Seconds())

	result, err := rateLimitScript.Run(ctx, rl.client, []string{rateLimitKeyPrefix + key}, now, windowSecs, limit).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit check failed, allowing request")
		return true, limit - 1, now + windowSecs
	}

	if len(result) != 3 {
		log.Warn().Str("key", key).Msg("unexpected redis rate limit result")
		return true, limit - 1, now + windowSecs
	}

	return result[0] == 1, int(result[1]), result[2]
}

// CheckinRateLimitMiddleware caps check-ins per client IP.
type CheckinRateLimitMiddleware struct {
	limiter Limiter
	limit   int
}

func NewCheckinRateLimitMiddleware(limiter Limiter, limit int) *CheckinRateLimitMiddleware {
	if limit <= 0 {
		limit = config.DefaultCheckinRateLimitPerMin
	}
	return &CheckinRateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *CheckinRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ip := audit.ClientIP(r)
		allowed, remaining, resetAt := m.limiter.Check(r.Context(), licenseredis.CheckinLimitKey(ip), m.limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"limit": m.limit},
			})
			retryAfter := max(resetAt-time.Now().Unix(), 1)
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			writeFailure(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
