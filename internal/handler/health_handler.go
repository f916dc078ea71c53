package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	pool  Pinger
	cache Pinger
}

// NewHealthHandler creates a new HealthHandler. cache may be nil when the rate
// limiter is disabled.
func NewHealthHandler(pool Pinger, cache Pinger) *HealthHandler {
	return &HealthHandler{pool: pool, cache: cache}
}

// Check pings the database and, when configured, the cache.
// Returns 503 {"status": "unhealthy"} when the database is unreachable.
// A cache failure reports "degraded" with 200.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.pool.Ping(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	cache := "disabled"
	status := "healthy"
	if h.cache != nil {
		cache = "up"
		if err := h.cache.Ping(c.UserContext()); err != nil {
			log.Warn().Err(err).Msg("health check: cache unreachable")
			cache = "down"
			status = "degraded"
		}
	}
	return c.JSON(fiber.Map{
		"status":   status,
		"database": "up",
		"cache":    cache,
	})
}
