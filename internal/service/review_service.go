package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/pricing"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

// ReviewService enforces the review rules and keeps property rating
// aggregates in step with every review change.
type ReviewService struct {
	pool       TxBeginner
	reviews    ReviewRepositoryInterface
	bookings   BookingRepositoryInterface
	properties PropertyRepositoryInterface
	notifier   Notifier
	now        func() time.Time
}

// NewReviewService creates a new ReviewService. notifier may be nil.
func NewReviewService(pool TxBeginner, reviews ReviewRepositoryInterface, bookings BookingRepositoryInterface,
	properties PropertyRepositoryInterface, notifier Notifier) *ReviewService {
	return &ReviewService{
		pool:       pool,
		reviews:    reviews,
		bookings:   bookings,
		properties: properties,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Create reviews a completed property booking of userID.
// Failures, in check order: ErrInvalidRating, ErrBookingNotFound, ErrForbidden, ErrStayNotFinished,
// ErrAlreadyReviewed, ErrBeforeCheckout, ErrBookingNotReviewable.
func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	if !validRating(req.Rating) {
		return nil, ErrInvalidRating
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	b, err := s.bookings.GetByID(ctx, tx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	if b.Status != model.BookingCompleted {
		return nil, ErrStayNotFinished
	}
	existing, err := s.reviews.GetByBooking(ctx, tx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get review by booking: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}
	if s.now().Before(b.CheckOut) {
		return nil, ErrBeforeCheckout
	}
	if b.PropertyID == nil {
		return nil, ErrBookingNotReviewable
	}

	rv := &model.Review{
		ID:         uuid.New(),
		BookingID:  bookingID,
		PropertyID: *b.PropertyID,
		UserID:     userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Media:      req.Media,
		IsApproved: true,
	}
	if rv.Media == nil {
		rv.Media = []string{}
	}
	if err := s.reviews.Insert(ctx, tx, rv); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	if _, _, err := s.recompute(ctx, tx, rv.PropertyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}

	s.notifyOwner(ctx, rv)
	return rv, nil
}

func validRating(r int) bool {
	return r >= model.MinRating && r <= model.MaxRating
}

// loadOwned fetches a review inside tx and checks that userID wrote it.
func (s *ReviewService) loadOwned(ctx context.Context, tx database.TxQuerier, userID, id uuid.UUID) (*model.Review, error) {
	rv, err := s.reviews.GetByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if rv == nil {
		return nil, ErrReviewNotFound
	}
	if rv.UserID != userID {
		return nil, ErrForbidden
	}
	return rv, nil
}

// Update edits the author's own review while its booking is still completed.
func (s *ReviewService) Update(ctx context.Context, userID, id uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if req.Rating != nil && !validRating(*req.Rating) {
		return nil, ErrInvalidRating
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := s.loadOwned(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, tx, rv.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || b.Status != model.BookingCompleted {
		return nil, ErrStayNotFinished
	}

	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	if req.Comment != nil {
		rv.Comment = *req.Comment
	}
	if req.Media != nil {
		rv.Media = req.Media
	}
	if err := s.reviews.Update(ctx, tx, rv); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if _, _, err := s.recompute(ctx, tx, rv.PropertyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}
	return rv, nil
}

// Delete removes the author's own review.
func (s *ReviewService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := s.loadOwned(ctx, tx, userID, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	if _, _, err := s.recompute(ctx, tx, rv.PropertyID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Moderate applies an admin decision to a review. Approval changes feed the
// rating aggregate immediately.
func (s *ReviewService) Moderate(ctx context.Context, id uuid.UUID, req *model.ModerateReviewRequest) (*model.Review, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := s.reviews.GetByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if rv == nil {
		return nil, ErrReviewNotFound
	}
	if req.IsApproved != nil {
		rv.IsApproved = *req.IsApproved
	}
	if req.IsFlagged != nil {
		rv.IsFlagged = *req.IsFlagged
	}
	if req.AdminNotes != nil {
		rv.AdminNotes = *req.AdminNotes
	}
	if err := s.reviews.Update(ctx, tx, rv); err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}
	if _, _, err := s.recompute(ctx, tx, rv.PropertyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}
	return rv, nil
}

// Recompute refreshes the rating aggregate of a property from its approved reviews.
func (s *ReviewService) Recompute(ctx context.Context, propertyID int64) (decimal.Decimal, int, error) {
	return s.recompute(ctx, nil, propertyID)
}

func (s *ReviewService) recompute(ctx context.Context, q database.TxQuerier, propertyID int64) (decimal.Decimal, int, error) {
	ratings, err := s.reviews.ApprovedRatings(ctx, q, propertyID)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("load ratings: %w", err)
	}
	avg, count := pricing.AverageRating(ratings)
	if err := s.properties.UpdateRating(ctx, q, propertyID, avg, count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("store rating: %w", err)
	}
	return avg, count, nil
}

// ListByProperty returns a page of approved reviews of a property.
func (s *ReviewService) ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) (*model.ReviewPage, error) {
	if filter.Rating < 0 || filter.Rating > 5 {
		return nil, ErrInvalidRequest
	}
	reviews, total, err := s.reviews.ListByProperty(ctx, propertyID, filter)
	if err != nil {
		return nil, err
	}
	return &model.ReviewPage{Reviews: reviews, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ListMine returns the reviews written by userID.
func (s *ReviewService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	return s.reviews.ListByUser(ctx, userID)
}

// Stats returns the rating aggregate and star distribution of a property.
func (s *ReviewService) Stats(ctx context.Context, propertyID int64) (*model.RatingStats, error) {
	p, err := s.properties.GetByID(ctx, nil, propertyID)
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, ErrPropertyNotFound
	}
	dist, err := s.reviews.RatingDistribution(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return &model.RatingStats{
		PropertyID:   propertyID,
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		Distribution: dist,
	}, nil
}

// SendInvitation asks the guest of a completed, unreviewed property booking to
// leave a review.
func (s *ReviewService) SendInvitation(ctx context.Context, userID, bookingID uuid.UUID) error {
	b, err := s.bookings.GetByID(ctx, nil, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return ErrBookingNotFound
	}
	if b.UserID != userID {
		return ErrForbidden
	}
	if b.Status != model.BookingCompleted {
		return ErrStayNotFinished
	}
	if b.PropertyID == nil {
		return ErrBookingNotReviewable
	}
	existing, err := s.reviews.GetByBooking(ctx, nil, bookingID)
	if err != nil {
		return fmt.Errorf("get review by booking: %w", err)
	}
	if existing != nil {
		return ErrAlreadyReviewed
	}
	s.InviteToReview(ctx, b)
	return nil
}

// InviteToReview sends the review invitation for a finished property stay.
// Room bookings are ignored.
func (s *ReviewService) InviteToReview(ctx context.Context, b *model.Booking) {
	s.invite(ctx, b, "Rate your stay", "How was your stay?",
		"How was %s? Tell us about your experience and rate your stay.")
}

// RemindToReview nudges a guest who has not reviewed a finished stay yet.
func (s *ReviewService) RemindToReview(ctx context.Context, b *model.Booking) {
	s.invite(ctx, b, "Reminder: rate your stay", "We would love your feedback",
		"You stayed at %s a few days ago. Your review is still welcome.")
}

func (s *ReviewService) invite(ctx context.Context, b *model.Booking, title, subject, bodyFormat string) {
	if s.notifier == nil || b.PropertyID == nil {
		return
	}
	name := "your stay"
	p, err := s.properties.GetByID(ctx, nil, *b.PropertyID)
	if err != nil {
		log.Warn().Err(err).Int64("property_id", *b.PropertyID).Msg("failed to load property for review invitation")
	} else if p != nil {
		name = p.Name
	}

	body := fmt.Sprintf(bodyFormat, name)
	s.notifier.Notify(ctx, b.UserID, model.Message{
		Type:  model.NotificationReviewInvitation,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"booking_id":  b.ID.String(),
			"property_id": fmt.Sprint(*b.PropertyID),
		},
		SMS:          body,
		EmailSubject: subject,
		EmailBody:    body + "\n\nYour review helps other guests choose with confidence.\n",
	})
}

func (s *ReviewService) notifyOwner(ctx context.Context, rv *model.Review) {
	if s.notifier == nil {
		return
	}
	owner, err := s.properties.OwnerOf(ctx, rv.PropertyID)
	if err != nil {
		log.Warn().Err(err).Int64("property_id", rv.PropertyID).Msg("failed to load property owner")
		return
	}
	if owner == uuid.Nil {
		return
	}
	s.notifier.Notify(ctx, owner, model.Message{
		Type:  model.NotificationNewReview,
		Title: "New review",
		Body:  fmt.Sprintf("A guest rated your property %d/5", rv.Rating),
		Data: map[string]string{
			"review_id":   rv.ID.String(),
			"property_id": fmt.Sprint(rv.PropertyID),
		},
	})
}
