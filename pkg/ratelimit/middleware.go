package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(c *fiber.Ctx) string

// Middleware rejects requests over the limit with 429. When Redis is
// unreachable requests are let through.
func Middleware(l *Limiter, keyFn KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := keyFn(c)
		if key == "" {
			key = c.IP()
		}

		res, err := l.Allow(c.UserContext(), key)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("rate limit check failed, allowing request")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds()))))

		if !res.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "RATE_LIMITED",
				"message": "too many requests, try again later",
			})
		}
		return c.Next()
	}
}
