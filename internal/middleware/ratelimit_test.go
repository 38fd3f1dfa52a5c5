package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimitEnabled(t *testing.T) {
	for env, want := range map[string]bool{
		"":            false,
		"test":        false,
		"development": false,
		"stress":      false,
		"staging":     true,
		"Production":  true,
	} {
		assert.Equal(t, want, RateLimitEnabled(env), env)
	}
}

func TestLimiter_DisabledAllowsWithoutRedis(t *testing.T) {
	d, err := NewLimiter(nil, false).Allow(context.Background(), LoginRule, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, LoginRule.Limit, d.Remaining)
}

func TestLimiter_NilRedisWhenEnabled(t *testing.T) {
	_, err := NewLimiter(nil, true).Allow(context.Background(), LoginRule, "10.0.0.1")
	assert.ErrorIs(t, err, errLimiterUnavailable)
}

func TestLimiter_CountsWithinWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLimiter(rdb, true)
	rule := Rule{Name: "track", Limit: 2, Window: time.Minute}
	ctx := context.Background()

	for want := 1; want >= 0; want-- {
		d, err := l.Allow(ctx, rule, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, want, d.Remaining)
	}

	d, err := l.Allow(ctx, rule, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	d, err = l.Allow(ctx, rule, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "clients have separate budgets")

	mr.FastForward(2 * time.Minute)
	d, err = l.Allow(ctx, rule, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_Handler(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLimiter(rdb, true)

	app := fiber.New()
	app.Post("/login", l.Handler(Rule{Name: "login", Limit: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestLimiter_HandlerFailurePolicy(t *testing.T) {
	l := NewLimiter(nil, true)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Post("/signup", l.Handler(SignupRule), ok)
	app.Get("/track", l.Handler(TrackRule), ok)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/signup", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/track", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
