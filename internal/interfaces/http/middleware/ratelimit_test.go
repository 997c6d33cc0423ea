package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewTokenBucketLimiter(1, 2, 0)
	l.now = func() time.Time { return now }

	ok, info := l.Allow("k")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)
	ok, _ = l.Allow("k")
	assert.True(t, ok)
	ok, info = l.Allow("k")
	assert.False(t, ok)
	assert.Zero(t, info.Remaining)

	now = now.Add(time.Second)
	ok, _ = l.Allow("k")
	assert.True(t, ok, "one token refilled after a second")

	ok, _ = l.Allow("other")
	assert.True(t, ok, "keys have independent buckets")
}

func TestTokenBucketLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	l := NewTokenBucketLimiter(1, 1, 0)
	l.cleanupInterval = time.Minute
	l.now = func() time.Time { return now }

	l.Allow("a")
	require.Equal(t, 1, l.BucketCount())

	now = now.Add(2 * time.Minute)
	l.cleanup()
	assert.Zero(t, l.BucketCount())

	l.Stop()
	l.Stop()
}

func TestTokenBucketLimiter_Concurrent(t *testing.T) {
	l := NewTokenBucketLimiter(0.001, 50, 0)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRateLimit_Middleware(t *testing.T) {
	l := NewTokenBucketLimiter(0.001, 1, 0)
	cfg := DefaultRateLimitConfig()
	cfg.KeyFunc = func(*gin.Context) string { return "fixed" }
	r := newEngine("/api", RateLimit(l, cfg))

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(t, r, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "COMMON_007")
}

func TestRateLimit_SkipPaths(t *testing.T) {
	l := NewTokenBucketLimiter(0.001, 1, 0)
	r := newEngine("/healthz", RateLimit(l, DefaultRateLimitConfig()))

	for i := 0; i < 3; i++ {
		w := serve(t, r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Zero(t, l.BucketCount())
}

//Personal.AI order the ending
