package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

const dateLayout = "2006-01-02"

// BookingServiceInterface defines the interface for booking business logic.
type BookingServiceInterface interface {
	CreateRoomBooking(ctx context.Context, in model.RoomBookingInput) (*model.BookingResult, error)
	CreatePropertyBooking(ctx context.Context, in model.PropertyBookingInput) (*model.BookingResult, error)
	GetBooking(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error)
	ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service   BookingServiceInterface
	validator *validator.Validate
}

// NewBookingHandler creates a new BookingHandler with the given service and validator.
func NewBookingHandler(svc BookingServiceInterface, v *validator.Validate) *BookingHandler {
	return &BookingHandler{service: svc, validator: v}
}

// CreateRoomBooking handles POST /api/bookings.
func (h *BookingHandler) CreateRoomBooking(c *fiber.Ctx) error {
	var req model.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	// Formats are guaranteed by the validator.
	roomID, _ := uuid.Parse(req.RoomID)
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	userID := UserID(c)

	result, err := h.service.CreateRoomBooking(c.UserContext(), model.RoomBookingInput{
		UserID:           userID,
		RoomID:           roomID,
		StartDate:        start,
		EndDate:          end,
		CouponCode:       req.CouponCode,
		PaymentMethodRef: req.PaymentMethodRef,
	})
	if err != nil {
		return respondError(c, err, "failed to create room booking")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", userID.String()).
		Str("booking_id", result.Booking.ID.String()).
		Str("room_id", req.RoomID).
		Msg("room booked")
	return c.Status(fiber.StatusCreated).JSON(result)
}

// CreatePropertyBooking handles POST /api/bookings/property.
func (h *BookingHandler) CreatePropertyBooking(c *fiber.Ctx) error {
	var req model.CreatePropertyBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	checkIn, _ := time.Parse(dateLayout, req.CheckInDate)
	checkOut, _ := time.Parse(dateLayout, req.CheckOutDate)
	userID := UserID(c)

	result, err := h.service.CreatePropertyBooking(c.UserContext(), model.PropertyBookingInput{
		UserID:          userID,
		PropertyID:      req.PropertyID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestCount:      req.GuestCount,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return respondError(c, err, "failed to create property booking")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", userID.String()).
		Str("booking_id", result.Booking.ID.String()).
		Int64("property_id", req.PropertyID).
		Str("deposit_paid", result.PaymentSummary.DepositPaid.StringFixed(2)).
		Msg("property booked")
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidParam(c, "id")
	}
	b, err := h.service.GetBooking(c.UserContext(), UserID(c), id)
	if err != nil {
		return respondError(c, err, "failed to get booking")
	}
	return c.JSON(b)
}

// ListBookings handles GET /api/bookings.
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	bookings, err := h.service.ListBookings(c.UserContext(), UserID(c))
	if err != nil {
		return respondError(c, err, "failed to list bookings")
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}
