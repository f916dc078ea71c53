package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// PaymentStatus tracks how much of a booking has been paid.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is the instrument a property deposit is charged to.
type PaymentMethod string

const (
	PaymentMada       PaymentMethod = "mada"
	PaymentVisa       PaymentMethod = "visa"
	PaymentMastercard PaymentMethod = "mastercard"
	PaymentApplePay   PaymentMethod = "apple_pay"
	PaymentSTCPay     PaymentMethod = "stc_pay"
	PaymentCash       PaymentMethod = "cash"
)

// Booking links a user to a room or a property over a date range.
// Exactly one of RoomID and PropertyID is set.
type Booking struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	RoomID           *uuid.UUID      `json:"room_id,omitempty"`
	PropertyID       *int64          `json:"property_id,omitempty"`
	CheckIn          time.Time       `json:"check_in"`
	CheckOut         time.Time       `json:"check_out"`
	Status           BookingStatus   `json:"status"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	CouponID         *int64          `json:"coupon_id,omitempty"`
	CouponCode       string          `json:"coupon_code,omitempty"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	DepositPaid      decimal.Decimal `json:"deposit_paid"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	PaymentMethod    PaymentMethod   `json:"payment_method,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	GuestCount       int             `json:"guest_count"`
	SpecialRequests  string          `json:"special_requests,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsPropertyBooking reports whether the booking reserves a property rather than a room.
func (b *Booking) IsPropertyBooking() bool {
	return b.PropertyID != nil
}

// CreateBookingRequest is the DTO for booking a room.
type CreateBookingRequest struct {
	RoomID           string `json:"room_id" validate:"required,uuid"`
	StartDate        string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date" validate:"required,datetime=2006-01-02"`
	CouponCode       string `json:"coupon_code" validate:"omitempty,max=50"`
	PaymentMethodRef string `json:"payment_method_id" validate:"required,notblank,max=255"`
}

// CreatePropertyBookingRequest is the DTO for booking a property with a deposit.
type CreatePropertyBookingRequest struct {
	PropertyID      int64         `json:"property_id" validate:"required,gte=1"`
	CheckInDate     string        `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate    string        `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	GuestCount      int           `json:"guest_count" validate:"omitempty,gte=1"`
	PaymentMethod   PaymentMethod `json:"payment_method" validate:"required,oneof=mada visa mastercard apple_pay stc_pay cash"`
	CouponCode      string        `json:"coupon_code" validate:"omitempty,max=50"`
	SpecialRequests string        `json:"special_requests" validate:"max=1000"`
}

// RoomBookingInput is a parsed room booking request.
type RoomBookingInput struct {
	UserID           uuid.UUID
	RoomID           uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	CouponCode       string
	PaymentMethodRef string
}

// PropertyBookingInput is a parsed property booking request.
type PropertyBookingInput struct {
	UserID          uuid.UUID
	PropertyID      int64
	CheckIn         time.Time
	CheckOut        time.Time
	GuestCount      int
	PaymentMethod   PaymentMethod
	CouponCode      string
	SpecialRequests string
}

// PaymentSummary describes the money side of a booking result.
type PaymentSummary struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	DepositPaid     decimal.Decimal `json:"deposit_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method,omitempty"`
	TransactionID   string          `json:"transaction_id,omitempty"`
}

// NextSteps tells a guest what to do before arrival.
type NextSteps struct {
	Message     string `json:"message"`
	CheckInTime string `json:"check_in_time"`
	ContactInfo string `json:"contact_info"`
}

// BookingResult is returned from a successful booking.
type BookingResult struct {
	Booking        *Booking       `json:"booking"`
	PaymentSummary PaymentSummary `json:"payment_summary"`
	NextSteps      *NextSteps     `json:"next_steps,omitempty"`
}

// BookingEventType names an event published for a booking state change.
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventConfirmed BookingEventType = "booking.confirmed"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventCompleted BookingEventType = "booking.completed"
)

// BookingEvent is the payload published to the booking event stream.
type BookingEvent struct {
	Type          BookingEventType `json:"type"`
	BookingID     uuid.UUID        `json:"booking_id"`
	UserID        uuid.UUID        `json:"user_id"`
	RoomID        *uuid.UUID       `json:"room_id,omitempty"`
	PropertyID    *int64           `json:"property_id,omitempty"`
	Status        BookingStatus    `json:"status"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	FinalAmount   decimal.Decimal  `json:"final_amount"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewBookingEvent builds an event snapshot of b.
func NewBookingEvent(t BookingEventType, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          t,
		BookingID:     b.ID,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		PropertyID:    b.PropertyID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		FinalAmount:   b.FinalAmount,
		OccurredAt:    at,
	}
}
