package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ratings are whole stars.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a guest's rating of a completed property stay. One per booking.
type Review struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID int64     `json:"property_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Media      []string  `json:"media"`
	IsApproved bool      `json:"is_approved"`
	IsFlagged  bool      `json:"is_flagged"`
	AdminNotes string    `json:"admin_notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateReviewRequest is the DTO for reviewing a booking.
type CreateReviewRequest struct {
	BookingID string   `json:"booking_id" validate:"required,uuid"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Comment   string   `json:"comment" validate:"max=2000"`
	Media     []string `json:"media" validate:"max=10,dive,url"`
}

// UpdateReviewRequest changes the author-editable fields of a review.
type UpdateReviewRequest struct {
	Rating  *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string  `json:"comment" validate:"omitempty,max=2000"`
	Media   []string `json:"media" validate:"omitempty,max=10,dive,url"`
}

// ModerateReviewRequest is the admin DTO for approving or flagging a review.
type ModerateReviewRequest struct {
	IsApproved *bool   `json:"is_approved"`
	IsFlagged  *bool   `json:"is_flagged"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=2000"`
}

// ReviewFilter narrows a property's review listing.
type ReviewFilter struct {
	Rating int
	Page   int
	Limit  int
}

// ReviewPage is a page of reviews.
type ReviewPage struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// RatingStats summarises the approved reviews of a property.
type RatingStats struct {
	PropertyID   int64           `json:"property_id"`
	Rating       decimal.Decimal `json:"rating"`
	ReviewsCount int             `json:"reviews_count"`
	Distribution map[int]int     `json:"distribution"`
}
