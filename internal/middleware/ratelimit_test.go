package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/config"
)

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.POST("/v1/allocations", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, NewTokenBucket(cfg, rdb))
	return e, mr
}

func doPost(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/allocations", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e, _ := newLimitedEcho(t, cfg)

	first := doPost(e)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))

	second := doPost(e)
	require.Equal(t, http.StatusOK, second.Code)

	third := doPost(e)
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
}

func TestTokenBucketRefills(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: 50 * time.Millisecond,
		TTL:            time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e, _ := newLimitedEcho(t, cfg)

	require.Equal(t, http.StatusOK, doPost(e).Code)
	require.Equal(t, http.StatusTooManyRequests, doPost(e).Code)

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, http.StatusOK, doPost(e).Code)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e, _ := newLimitedEcho(t, config.RateLimitConfig{Enabled: false})
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doPost(e).Code)
	}
}

func TestTokenBucketFailsOpenOnRedisOutage(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e, mr := newLimitedEcho(t, cfg)
	mr.Close()

	// Redis being down must not take the API down with it.
	require.Equal(t, http.StatusOK, doPost(e).Code)
}
