package handler

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)
	Get(ctx context.Context, id int64) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, id int64, req *model.CouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, id int64) error
	Validate(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// int64Param parses a positive numeric route parameter.
func int64Param(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func invalidParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "INVALID_REQUEST",
		"message": "invalid request: " + name + " is invalid",
	})
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	coupon, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to create coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int64("coupon_id", coupon.ID).
		Str("code", coupon.Code).
		Msg("coupon created")
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// GetCoupon handles GET /api/admin/coupons/:id.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	coupon, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "failed to get coupon")
	}
	return c.JSON(coupon)
}

// ListCoupons handles GET /api/admin/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "failed to list coupons")
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}

// UpdateCoupon handles PUT /api/admin/coupons/:id.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	var req model.CouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	coupon, err := h.service.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update coupon")
	}
	return c.JSON(coupon)
}

// DeleteCoupon handles DELETE /api/admin/coupons/:id.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err, "failed to delete coupon")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateCoupon handles POST /api/coupons/validate. A rejected coupon is a
// 400 carrying the rejection as reason.
func (h *CouponHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	ev, err := h.service.Validate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to validate coupon")
	}
	return c.JSON(ev)
}
