package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/property-booking/internal/model"
)

const maxNotifications = 100

// NotificationLister lists the in-app notifications of a user.
type NotificationLister interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
}

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	notifications NotificationLister
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(n NotificationLister) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// ListNotifications handles GET /api/notifications?limit=.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > maxNotifications {
		limit = maxNotifications
	}
	items, err := h.notifications.List(c.UserContext(), UserID(c), limit)
	if err != nil {
		return respondError(c, err, "failed to list notifications")
	}
	return c.JSON(fiber.Map{"notifications": items})
}
