package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// ReviewServiceInterface defines the interface for review business logic.
type ReviewServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error)
	Update(ctx context.Context, userID, id uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Moderate(ctx context.Context, id uuid.UUID, req *model.ModerateReviewRequest) (*model.Review, error)
	ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) (*model.ReviewPage, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	Stats(ctx context.Context, propertyID int64) (*model.RatingStats, error)
	SendInvitation(ctx context.Context, userID, bookingID uuid.UUID) error
}

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service   ReviewServiceInterface
	validator *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler with the given service and validator.
func NewReviewHandler(svc ReviewServiceInterface, v *validator.Validate) *ReviewHandler {
	return &ReviewHandler{service: svc, validator: v}
}

// CreateReview handles POST /api/reviews.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	var req model.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	rv, err := h.service.Create(c.UserContext(), UserID(c), &req)
	if err != nil {
		return respondError(c, err, "failed to create review")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("review_id", rv.ID.String()).
		Int64("property_id", rv.PropertyID).
		Int("rating", rv.Rating).
		Msg("review created")
	return c.Status(fiber.StatusCreated).JSON(rv)
}

// UpdateReview handles PUT /api/reviews/:id.
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidParam(c, "id")
	}
	var req model.UpdateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	rv, err := h.service.Update(c.UserContext(), UserID(c), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update review")
	}
	return c.JSON(rv)
}

// DeleteReview handles DELETE /api/reviews/:id.
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidParam(c, "id")
	}
	if err := h.service.Delete(c.UserContext(), UserID(c), id); err != nil {
		return respondError(c, err, "failed to delete review")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ModerateReview handles PATCH /api/admin/reviews/:id.
func (h *ReviewHandler) ModerateReview(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidParam(c, "id")
	}
	var req model.ModerateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	rv, err := h.service.Moderate(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "failed to moderate review")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("review_id", rv.ID.String()).
		Bool("is_approved", rv.IsApproved).
		Bool("is_flagged", rv.IsFlagged).
		Msg("review moderated")
	return c.JSON(rv)
}

// ListPropertyReviews handles GET /api/reviews/property/:propertyId?rating=&page=&limit=.
func (h *ReviewHandler) ListPropertyReviews(c *fiber.Ctx) error {
	propertyID, ok := int64Param(c, "propertyId")
	if !ok {
		return invalidParam(c, "propertyId")
	}
	filter := model.ReviewFilter{
		Rating: c.QueryInt("rating"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	page, err := h.service.ListByProperty(c.UserContext(), propertyID, filter)
	if err != nil {
		return respondError(c, err, "failed to list reviews")
	}
	return c.JSON(page)
}

// PropertyStats handles GET /api/reviews/stats/:propertyId.
func (h *ReviewHandler) PropertyStats(c *fiber.Ctx) error {
	propertyID, ok := int64Param(c, "propertyId")
	if !ok {
		return invalidParam(c, "propertyId")
	}
	stats, err := h.service.Stats(c.UserContext(), propertyID)
	if err != nil {
		return respondError(c, err, "failed to get review stats")
	}
	return c.JSON(stats)
}

// ListMyReviews handles GET /api/reviews/mine.
func (h *ReviewHandler) ListMyReviews(c *fiber.Ctx) error {
	reviews, err := h.service.ListMine(c.UserContext(), UserID(c))
	if err != nil {
		return respondError(c, err, "failed to list reviews")
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// SendInvitation handles POST /api/reviews/invitation/:bookingId.
func (h *ReviewHandler) SendInvitation(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return invalidParam(c, "bookingId")
	}
	if err := h.service.SendInvitation(c.UserContext(), UserID(c), bookingID); err != nil {
		return respondError(c, err, "failed to send review invitation")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent"})
}
