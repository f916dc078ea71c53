package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/internal/validator"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(e *service.Error) int {
	switch e.Kind {
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindValidation, service.KindBusinessRule, service.KindUnavailable:
		return fiber.StatusBadRequest
	case service.KindPayment:
		if e.Code == service.ErrPaymentFailed.Code {
			return fiber.StatusBadRequest
		}
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err to the client. Domain errors keep their code, reason
// and message; anything else is logged with msg and returned as an opaque 500.
func respondError(c *fiber.Ctx, err error, msg string) error {
	var de *service.Error
	if errors.As(err, &de) {
		status := statusFor(de)
		if status >= fiber.StatusInternalServerError {
			requestLog(c).Warn().Err(err).Msg(msg)
		}
		body := fiber.Map{"error": de.Code, "message": de.Message}
		if de.Reason != "" {
			body["reason"] = de.Reason
		}
		return c.Status(status).JSON(body)
	}

	requestLog(c).Error().Err(err).Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// badRequest rejects a request that failed body parsing or validation.
func badRequest(c *fiber.Ctx, err error) error {
	message := "invalid request body"
	if err != nil {
		message = validator.Message(err)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   service.ErrInvalidRequest.Code,
		"message": message,
	})
}

// requestLog returns a logger carrying the request id, method and path.
func requestLog(c *fiber.Ctx) *zerolog.Logger {
	l := log.With().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Logger()
	return &l
}
