package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errLimiterUnavailable = errors.New("rate limit store unavailable")

// Rule is one fixed-window budget for a public endpoint.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed answers 503 when Redis is unreachable instead of letting the request through.
	FailClosed bool
}

// Budgets for the unauthenticated surface. Credential endpoints fail closed.
var (
	SignupRule = Rule{Name: "officer_signup", Limit: 5, Window: 10 * time.Minute, FailClosed: true}
	LoginRule  = Rule{Name: "login", Limit: 10, Window: 5 * time.Minute, FailClosed: true}
	TrackRule  = Rule{Name: "track", Limit: 60, Window: time.Minute}
)

// Decision is the outcome of one counted hit.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per (rule, client) in Redis.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a limiter. A disabled limiter allows everything.
func NewLimiter(rdb *redis.Client, enabled bool) *Limiter {
	return &Limiter{rdb: rdb, enabled: enabled}
}

// RateLimitEnabled reports whether env enforces limits. Local and test
// environments skip them.
func RateLimitEnabled(env string) bool {
	switch strings.ToLower(env) {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// Allow counts one hit for client under rule.
func (l *Limiter) Allow(ctx context.Context, rule Rule, client string) (Decision, error) {
	if !l.enabled {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errLimiterUnavailable
	}

	key := "rl:" + rule.Name + ":" + client
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}
	if n == 1 {
		l.rdb.Expire(ctx, key, rule.Window)
	}
	if n <= int64(rule.Limit) {
		return Decision{Allowed: true, Remaining: rule.Limit - int(n)}, nil
	}

	retry, err := l.rdb.PTTL(ctx, key).Result()
	if err != nil || retry <= 0 {
		retry = rule.Window
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// Handler enforces rule per client IP.
func (l *Limiter) Handler(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := l.Allow(c.UserContext(), rule, c.IP())
		if err != nil {
			if !rule.FailClosed {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
				slog.String("rule", rule.Name),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, try again later",
			})
		}
		return c.Next()
	}
}
