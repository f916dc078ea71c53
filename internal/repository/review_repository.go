package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const reviewColumns = `id, booking_id, property_id, user_id, rating, COALESCE(comment, ''), media,
	is_approved, is_flagged, COALESCE(admin_notes, ''), created_at, updated_at`

// ReviewRepository provides data access for reviews using pgx.
type ReviewRepository struct {
	pool PoolInterface
}

// NewReviewRepository creates a new ReviewRepository with the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// NewReviewRepositoryWithPool creates a ReviewRepository with a custom pool interface.
func NewReviewRepositoryWithPool(pool PoolInterface) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row rowScanner) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(
		&rv.ID,
		&rv.BookingID,
		&rv.PropertyID,
		&rv.UserID,
		&rv.Rating,
		&rv.Comment,
		&rv.Media,
		&rv.IsApproved,
		&rv.IsFlagged,
		&rv.AdminNotes,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rv.Media == nil {
		rv.Media = []string{}
	}
	return &rv, nil
}

func collectReviews(rows pgx.Rows) ([]model.Review, error) {
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func mediaOrEmpty(media []string) []string {
	if media == nil {
		return []string{}
	}
	return media
}

// Insert stores a new review. The caller assigns the id.
// Returns service.ErrAlreadyReviewed if the booking already has a review.
func (r *ReviewRepository) Insert(ctx context.Context, q database.TxQuerier, rv *model.Review) error {
	err := database.Or(q, r.pool).QueryRow(ctx,
		`INSERT INTO reviews (id, booking_id, property_id, user_id, rating, comment, media, is_approved, is_flagged)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		 RETURNING created_at, updated_at`,
		rv.ID, rv.BookingID, rv.PropertyID, rv.UserID, rv.Rating, rv.Comment, mediaOrEmpty(rv.Media),
		rv.IsApproved, rv.IsFlagged,
	).Scan(&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return service.ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review. Returns nil, nil if the review is not found.
func (r *ReviewRepository) GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(database.Or(q, r.pool).QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return rv, nil
}

// GetByBooking retrieves the review of a booking. Returns nil, nil if there is none.
func (r *ReviewRepository) GetByBooking(ctx context.Context, q database.TxQuerier, bookingID uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(database.Or(q, r.pool).QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE booking_id = $1`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review of booking %s: %w", bookingID, err)
	}
	return rv, nil
}

// Update persists the author and moderation fields of a review.
func (r *ReviewRepository) Update(ctx context.Context, q database.TxQuerier, rv *model.Review) error {
	err := database.Or(q, r.pool).QueryRow(ctx,
		`UPDATE reviews
		 SET rating = $2, comment = NULLIF($3, ''), media = $4, is_approved = $5, is_flagged = $6,
		     admin_notes = NULLIF($7, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		rv.ID, rv.Rating, rv.Comment, mediaOrEmpty(rv.Media), rv.IsApproved, rv.IsFlagged, rv.AdminNotes,
	).Scan(&rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrReviewNotFound
		}
		return fmt.Errorf("update review %s: %w", rv.ID, err)
	}
	return nil
}

// Delete removes a review. Returns service.ErrReviewNotFound when nothing was deleted.
func (r *ReviewRepository) Delete(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	tag, err := database.Or(q, r.pool).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrReviewNotFound
	}
	return nil
}

// ApprovedRatings returns the ratings of all approved reviews of a property.
func (r *ReviewRepository) ApprovedRatings(ctx context.Context, q database.TxQuerier, propertyID int64) ([]int, error) {
	rows, err := database.Or(q, r.pool).Query(ctx,
		`SELECT rating FROM reviews WHERE property_id = $1 AND is_approved`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("approved ratings of property %d: %w", propertyID, err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// ListByProperty returns one page of approved reviews and the total number matching.
func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) ([]model.Review, int, error) {
	limit, offset := pagination(filter.Page, filter.Limit)

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE property_id = $1 AND is_approved AND ($2 = 0 OR rating = $2)`,
		propertyID, filter.Rating).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews of property %d: %w", propertyID, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE property_id = $1 AND is_approved AND ($2 = 0 OR rating = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		propertyID, filter.Rating, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews of property %d: %w", propertyID, err)
	}
	reviews, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByUser returns the reviews a user wrote, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of user %s: %w", userID, err)
	}
	return collectReviews(rows)
}

// RatingDistribution counts approved reviews of a property per star value.
// Every value from 1 to 5 is present in the result.
func (r *ReviewRepository) RatingDistribution(ctx context.Context, propertyID int64) (map[int]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rating, COUNT(*) FROM reviews WHERE property_id = $1 AND is_approved GROUP BY rating`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution of property %d: %w", propertyID, err)
	}
	defer rows.Close()

	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan rating count: %w", err)
		}
		dist[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating counts: %w", err)
	}
	return dist, nil
}
