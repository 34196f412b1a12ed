package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	g := e.Group("/admin", JWTAuth("k"), RequireRole("ADMIN"))
	g.GET("/who", func(c echo.Context) error {
		id, ok := UserID(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin/who", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin/who", "Bearer junk").Code)

	cust, err := utils.NewAccessToken("k", 5, "CUSTOMER", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin/who", "Bearer "+cust.Token).Code)

	admin, err := utils.NewAccessToken("k", 6, "ADMIN", 5)
	require.NoError(t, err)
	rec := serve(e, http.MethodGet, "/admin/who", "Bearer "+admin.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":6,"role":"ADMIN"}`, rec.Body.String())
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	log, _ := test.NewNullLogger()
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, log))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "").Code)
	rec := serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	log, hook := test.NewNullLogger()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, log))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "").Code)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 1 << 10}
	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.GET("/movies", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": 1})
	})

	first := serve(e, http.MethodGet, "/movies", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/movies", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	serve(e, http.MethodGet, "/movies", "Bearer abc")
	assert.Equal(t, 2, calls)
}

func TestDecodeEntryRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodeEntry([]byte{0, 1})
	assert.False(t, ok)
	bs, err := encodeEntry(200, http.Header{"A": {"b"}}, []byte("body"))
	require.NoError(t, err)
	status, hdr, body, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "b", hdr.Get("A"))
	assert.Equal(t, "body", string(body))
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, http.StatusTeapot, hook.LastEntry().Data["status"])
}
