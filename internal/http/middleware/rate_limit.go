package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	infraPrometheus "github.com/shredlink/shredlink/internal/infra/prometheus"
	"github.com/shredlink/shredlink/internal/ratelimit"
	"go.uber.org/zap"
)

// CreateRateLimit guards the creation endpoint with per-IP admission control.
// An unresolvable client IP skips admission entirely, and limiter backend
// errors fail open: throttling is never allowed to take the service down.
func CreateRateLimit(limiter ratelimit.Limiter, maxPerMinute int, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Next()
		}

		ok, remaining, err := limiter.Allow(c.Context(), ip)
		if err != nil {
			logger.Error("rate limit backend error", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMinute))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

		if !ok {
			infraPrometheus.CreationsThrottled.Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		}

		return c.Next()
	}
}
