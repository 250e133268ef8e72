package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key over fixed windows
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// InMemoryLimiter is a per-process fixed window limiter
type InMemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*fixedWindow
	sweepAt time.Time
}

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// NewInMemoryLimiter allows limit requests per key every window
func NewInMemoryLimiter(limit int, window time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*fixedWindow),
	}
}

// Allow counts one request for key
func (l *InMemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.sweepAt) {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.sweepAt = now.Add(l.window)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return decide(l.limit, w.count, w.resetAt), nil
}

// RedisLimiter shares fixed windows across instances with INCR and EXPIRE
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter allows limit requests per key every window
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "qm:ratelimit:"}
}

// Allow counts one request for key
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = l.window
	}
	return decide(l.limit, int(incr.Val()), time.Now().Add(remaining)), nil
}

func decide(limit, count int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= limit, Limit: limit, Remaining: remaining, ResetAt: resetAt}
}

// RateLimit throttles by caller: the tenant and user when authenticated,
// the client IP otherwise. Limiter failures let the request through.
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), rateLimitKey(c))
		if err != nil {
			logger.Enrich(c.Request.Context(), log).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			retry := int(time.Until(d.ResetAt).Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(retry))
			Abort(c, dto.ErrCodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if claims := Claims(c); claims != nil {
		return "user:" + claims.TenantID.String() + ":" + claims.UserID.String()
	}
	return "ip:" + c.ClientIP()
}
