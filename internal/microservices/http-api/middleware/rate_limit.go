package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether another request for key fits in the budget.
// When it does not, retryAfter says how long the caller should wait.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

// fixedWindow increments the counter and gives it a TTL in one step. A key
// left without a TTL gets one on its next hit.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}

	if res[0] > int64(l.limit) {
		wait := time.Duration(res[1]) * time.Millisecond
		if wait <= 0 {
			wait = l.window
		}
		return false, wait, nil
	}
	return true, 0, nil
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps a token bucket per key in process memory. It is used
// when no Redis is configured. A bucket refills completely within one
// window, so keys idle for a window are dropped.
type LocalLimiter struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    window,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	r := e.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops idle keys. Callers hold l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.idle {
			delete(l.entries, k)
		}
	}
	l.lastSweep = now
}

// RateLimit throttles by client IP and route. Limiter failures are logged and
// the request is let through.
func RateLimit(limiter RateLimiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate_limit_unavailable", "key", key, "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
