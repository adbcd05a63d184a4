package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter allows the first limit calls per key.
type countingLimiter struct {
	mu   sync.Mutex
	seen map[string]int
}

func (l *countingLimiter) Check(ctx context.Context, key string, limit int) (bool, int, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	resetAt := time.Now().Add(time.Minute).Unix()
	if l.seen[key] >= limit {
		return false, 0, resetAt
	}
	l.seen[key]++
	return true, limit - l.seen[key], resetAt
}

func checkinRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auto-register", nil)
	req.RemoteAddr = ip + ":53211"
	return req
}

func TestCheckinRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests under limit and sets headers", func(t *testing.T) {
		handler := NewCheckinRateLimitMiddleware(&countingLimiter{}, 3).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, checkinRequest("10.0.0.1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		handler := NewCheckinRateLimitMiddleware(&countingLimiter{}, 2).Handler(okHandler())

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, checkinRequest("10.0.0.2"))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, checkinRequest("10.0.0.2"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})

	t.Run("tracks client IPs separately", func(t *testing.T) {
		handler := NewCheckinRateLimitMiddleware(&countingLimiter{}, 1).Handler(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, checkinRequest("10.0.0.3"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, checkinRequest("10.0.0.4"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("spoofed forwarded prefix does not change the key", func(t *testing.T) {
		limiter := &countingLimiter{}
		handler := TrustedRealIP(1)(NewCheckinRateLimitMiddleware(limiter, 5).Handler(okHandler()))

		for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
			req := checkinRequest("10.0.0.5")
			req.Header.Set("X-Forwarded-For", spoofed+", 203.0.113.9")
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		assert.Equal(t, 3, limiter.seen["checkin:203.0.113.9"])
		assert.Len(t, limiter.seen, 1)
	})

	t.Run("preflight is not counted", func(t *testing.T) {
		limiter := &countingLimiter{}
		handler := NewCheckinRateLimitMiddleware(limiter, 1).Handler(okHandler())

		req := httptest.NewRequest(http.MethodOptions, "/api/auto-register", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, limiter.seen)
	})

	t.Run("non-positive limit falls back to default", func(t *testing.T) {
		m := NewCheckinRateLimitMiddleware(&countingLimiter{}, 0)
		assert.Equal(t, 30, m.limit)
	})
}

func TestRedisRateLimiter(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())

	limiter := NewRedisRateLimiter(client, 10*time.Second)

	t.Run("sliding window", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, remaining, _ := limiter.Check(ctx, "checkin:test-a", 3)
			assert.True(t, allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 3-i-1, remaining)
		}

		allowed, remaining, resetAt := limiter.Check(ctx, "checkin:test-a", 3)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
		assert.Greater(t, resetAt, time.Now().Unix())
	})

	t.Run("fails open when redis is unreachable", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
		defer dead.Close()

		allowed, _, _ := NewRedisRateLimiter(dead, time.Minute).Check(ctx, "checkin:test-b", 1)
		assert.True(t, allowed)
	})
}
