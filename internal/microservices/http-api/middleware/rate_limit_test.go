package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, wait, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")
}

func TestLocalLimiter_DropsIdleKeys(t *testing.T) {
	l := NewLocalLimiter(1, time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		ok, _, err := l.Allow(ctx, fmt.Sprintf("10.0.0.%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)
	assert.Len(t, l.entries, 100)

	now = now.Add(time.Minute)
	ok, _, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "bucket refilled")
	assert.Len(t, l.entries, 1)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLimiter(client, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, wait, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "window resets after expiry")
}

func TestRedisLimiter_RepairsKeyWithoutTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// a counter whose expiry was never set
	require.NoError(t, mr.Set("ratelimit:k", "50"))

	l := NewRedisLimiter(client, 2, time.Minute)
	ok, wait, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:k"))

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, _, err = NewRedisLimiter(client, 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.POST("/limited", RateLimit(NewLocalLimiter(1, time.Minute), log), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/open", RateLimit(failingLimiter{}, log), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w
	}

	assert.Equal(t, http.StatusNoContent, send("/limited").Code)
	w := send("/limited")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("/open").Code)
}
