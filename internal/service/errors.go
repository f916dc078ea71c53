package service

import "fmt"

// Kind classifies a domain failure. Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnavailable
	KindValidation
	KindBusinessRule
	KindConflict
	KindPayment
	KindForbidden
)

// Error is a domain failure carrying a machine-readable code, an optional
// sub-reason and a human-readable message.
type Error struct {
	Kind    Kind
	Code    string
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors with the same code. A target without a reason matches
// any reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Reason == "" || t.Reason == e.Reason)
}

// WithReason returns a copy of e carrying reason and message.
func (e *Error) WithReason(reason, message string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Reason: reason, Message: message}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidRequest = newError(KindValidation, "INVALID_REQUEST", "invalid request")

	ErrCouponExists       = newError(KindConflict, "COUPON_EXISTS", "coupon code already exists")
	ErrCouponNotFound     = newError(KindNotFound, "COUPON_NOT_FOUND", "coupon not found")
	ErrInvalidCoupon      = newError(KindBusinessRule, "INVALID_COUPON", "coupon cannot be applied")
	ErrUsageLimitExceeded = newError(KindBusinessRule, "COUPON_USAGE_LIMIT_EXCEEDED", "coupon usage limit reached")

	ErrRoomNotFound     = newError(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrRoomNotAvailable = newError(KindUnavailable, "ROOM_NOT_AVAILABLE", "room is not available")

	ErrPropertyNotFound       = newError(KindNotFound, "PROPERTY_NOT_FOUND", "property not found")
	ErrPropertyUnavailable    = newError(KindNotFound, "PROPERTY_NOT_FOUND_OR_UNAVAILABLE", "property not found or not available")
	ErrPropertyDatesTaken     = newError(KindUnavailable, "PROPERTY_NOT_AVAILABLE_FOR_DATES", "property is already booked for these dates")
	ErrGuestCountExceeded     = newError(KindValidation, "GUEST_COUNT_EXCEEDS_CAPACITY", "guest count exceeds property capacity")
	ErrInvalidDateRange       = newError(KindValidation, "INVALID_DATE_RANGE", "check-out must be after check-in")
	ErrDepositExceedsTotal    = newError(KindBusinessRule, "DEPOSIT_EXCEEDS_TOTAL_AMOUNT", "deposit exceeds the booking total")
	ErrPaymentFailed          = newError(KindPayment, "PAYMENT_FAILED", "payment was not successful")
	ErrPaymentProcessingError = newError(KindPayment, "PAYMENT_PROCESSING_ERROR", "payment could not be processed")

	ErrBookingNotFound      = newError(KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrForbidden            = newError(KindForbidden, "FORBIDDEN", "not allowed to act on this resource")
	ErrStayNotFinished      = newError(KindBusinessRule, "STAY_NOT_FINISHED", "booking is not completed")
	ErrAlreadyReviewed      = newError(KindBusinessRule, "ALREADY_REVIEWED", "booking already has a review")
	ErrBeforeCheckout       = newError(KindBusinessRule, "BEFORE_CHECKOUT", "reviews open after the check-out date")
	ErrBookingNotReviewable = newError(KindValidation, "BOOKING_NOT_REVIEWABLE", "only property bookings can be reviewed")
	ErrReviewNotFound       = newError(KindNotFound, "REVIEW_NOT_FOUND", "review not found")
	ErrInvalidRating        = newError(KindValidation, "INVALID_RATING", "rating must be between 1 and 5")
)
