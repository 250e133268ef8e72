package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestInMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks past the limit per key", func(t *testing.T) {
		l := NewInMemoryLimiter(2, time.Minute)
		for i := 0; i < 2; i++ {
			d, err := l.Allow(ctx, "a")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		}
		d, _ := l.Allow(ctx, "a")
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)

		d, _ = l.Allow(ctx, "b")
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Remaining)
	})

	t.Run("new window resets the count", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		l := NewInMemoryLimiter(1, time.Minute)
		l.now = func() time.Time { return now }

		d, _ := l.Allow(ctx, "a")
		assert.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "a")
		assert.False(t, d.Allowed)

		now = now.Add(time.Minute)
		d, _ = l.Allow(ctx, "a")
		assert.True(t, d.Allowed)
	})

	t.Run("sweeps expired windows", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		l := NewInMemoryLimiter(1, time.Minute)
		l.now = func() time.Time { return now }
		_, _ = l.Allow(ctx, "a")
		_, _ = l.Allow(ctx, "b")

		now = now.Add(2 * time.Minute)
		_, _ = l.Allow(ctx, "c")
		assert.Len(t, l.windows, 1)
	})

	t.Run("concurrent access", func(t *testing.T) {
		l := NewInMemoryLimiter(100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, _ := l.Allow(ctx, "shared")
				if d.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewInMemoryLimiter(1, time.Minute), zap.NewNop()))
	r.GET("/x", okHandler)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(brokenLimiter{}, zap.NewNop()))
	r.GET("/x", okHandler)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}
