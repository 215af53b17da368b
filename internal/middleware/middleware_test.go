package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/workshop-booking/internal/config"
	"github.com/iliyamo/workshop-booking/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	g := e.Group("/admin", JWTAuth("secret"), RequireRole("ADMIN"))
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": c.Get(ctxUserID), "email": c.Get(ctxEmail)})
	})

	rec := do(e, http.MethodGet, "/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/admin/me", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	staff, err := utils.NewAccessToken("secret", 7, "viewer@example.com", "VIEWER", 5)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/admin/me", map[string]string{"Authorization": "Bearer " + staff.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := utils.NewAccessToken("secret", 1, "admin@example.com", "ADMIN", 5)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/admin/me", map[string]string{"Authorization": "Bearer " + admin.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"1","email":"admin@example.com"}`, rec.Body.String())
}

func limitCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
}

func limitedEcho(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.POST("/v1/bookings/:id/pay", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func TestTokenBucketRedis(t *testing.T) {
	mr, rdb := newRedis(t)
	e := limitedEcho(limitCfg(), rdb)

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodPost, "/v1/bookings/abc/pay", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := do(e, http.MethodPost, "/v1/bookings/abc/pay", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:rl:ip:")
}

func TestTokenBucketLocalFallback(t *testing.T) {
	e := limitedEcho(limitCfg(), nil)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
	rec := do(e, http.MethodPost, "/v1/bookings/abc/pay", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	other := do(e, http.MethodPost, "/v1/bookings/abc/pay", map[string]string{"X-Real-Ip": "10.0.0.9"})
	assert.Equal(t, http.StatusNoContent, other.Code)
}

func TestTokenBucketFallsBackWhenRedisFails(t *testing.T) {
	mr, rdb := newRedis(t)
	e := limitedEcho(limitCfg(), rdb)
	mr.Close()

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := limitCfg()
	cfg.Enabled = false
	e := limitedEcho(cfg, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/bookings/abc/pay", nil).Code)
	}
}

func TestSubjectKeys(t *testing.T) {
	e := echo.New()
	var got []string
	h := func(c echo.Context) error { got = append(got, subject(c)); return nil }
	e.GET("/v1/bookings/:id", h)
	e.GET("/v1/calendar", h)
	e.GET("/v1/admin/bookings", func(c echo.Context) error { c.Set(ctxUserID, "3"); return h(c) })

	do(e, http.MethodGet, "/v1/bookings/s1", nil)
	do(e, http.MethodGet, "/v1/calendar", nil)
	do(e, http.MethodGet, "/v1/admin/bookings", nil)
	assert.Equal(t, []string{"session:s1", "anon", "user:3"}, got)
}

func TestResponseCache(t *testing.T) {
	mr, rdb := newRedis(t)
	rc := NewResponseCache(rdb, "wh", time.Minute)

	var calls atomic.Int32
	e := echo.New()
	e.GET("/v1/calendar", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"groups": []string{"a"}})
	}, rc.Middleware())
	e.GET("/v1/broken", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "down"})
	}, rc.Middleware())

	first := do(e, http.MethodGet, "/v1/calendar", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/v1/calendar", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, int32(1), calls.Load())

	do(e, http.MethodGet, "/v1/broken", nil)
	do(e, http.MethodGet, "/v1/broken", nil)
	assert.Equal(t, int32(3), calls.Load())

	require.NoError(t, rc.Purge(t.Context()))
	assert.Empty(t, mr.Keys())
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/calendar", nil).Header().Get("X-Cache"))
}

func TestResponseCacheWithoutRedis(t *testing.T) {
	rc := NewResponseCache(nil, "wh", 0)
	e := echo.New()
	e.GET("/v1/calendar", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, rc.Middleware())
	rec := do(e, http.MethodGet, "/v1/calendar", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, rc.Purge(t.Context()))
}
