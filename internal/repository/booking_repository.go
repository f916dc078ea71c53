package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const bookingColumns = `id, user_id, room_id, property_id, check_in, check_out, status, payment_status,
	coupon_id, COALESCE(coupon_code, ''), original_amount, discount_amount, final_amount,
	deposit_amount, deposit_paid, remaining_amount, COALESCE(payment_method, ''),
	COALESCE(payment_reference, ''), guest_count, COALESCE(special_requests, ''),
	COALESCE(notes, ''), created_at, updated_at`

// BookingRepository provides data access for bookings using pgx.
type BookingRepository struct {
	pool PoolInterface
}

// NewBookingRepository creates a new BookingRepository with the given pool.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// NewBookingRepositoryWithPool creates a BookingRepository with a custom pool interface.
func NewBookingRepositoryWithPool(pool PoolInterface) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.PropertyID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Status,
		&b.PaymentStatus,
		&b.CouponID,
		&b.CouponCode,
		&b.OriginalAmount,
		&b.DiscountAmount,
		&b.FinalAmount,
		&b.DepositAmount,
		&b.DepositPaid,
		&b.RemainingAmount,
		&b.PaymentMethod,
		&b.PaymentReference,
		&b.GuestCount,
		&b.SpecialRequests,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// Insert stores a new booking. The caller assigns the id.
func (r *BookingRepository) Insert(ctx context.Context, q database.TxQuerier, b *model.Booking) error {
	err := database.Or(q, r.pool).QueryRow(ctx,
		`INSERT INTO bookings (id, user_id, room_id, property_id, check_in, check_out, status, payment_status,
		     coupon_id, coupon_code, original_amount, discount_amount, final_amount, deposit_amount,
		     deposit_paid, remaining_amount, payment_method, payment_reference, guest_count,
		     special_requests, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, $15, $16,
		     NULLIF($17, ''), NULLIF($18, ''), $19, NULLIF($20, ''), NULLIF($21, ''))
		 RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.RoomID, b.PropertyID, b.CheckIn, b.CheckOut, b.Status, b.PaymentStatus,
		b.CouponID, b.CouponCode, b.OriginalAmount, b.DiscountAmount, b.FinalAmount, b.DepositAmount,
		b.DepositPaid, b.RemainingAmount, string(b.PaymentMethod), b.PaymentReference, b.GuestCount,
		b.SpecialRequests, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking. Returns nil, nil if the booking is not found.
func (r *BookingRepository) GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	row := database.Or(q, r.pool).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings of user %s: %w", userID, err)
	}
	return collectBookings(rows)
}

// UpdatePayment persists the payment outcome of a booking.
func (r *BookingRepository) UpdatePayment(ctx context.Context, q database.TxQuerier, b *model.Booking) error {
	err := database.Or(q, r.pool).QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, payment_status = $3, deposit_paid = $4, payment_reference = NULLIF($5, ''),
		     notes = NULLIF($6, ''), remaining_amount = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		b.ID, b.Status, b.PaymentStatus, b.DepositPaid, b.PaymentReference, b.Notes, b.RemainingAmount,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment of booking %s: %w", b.ID, err)
	}
	return nil
}

// FindStalePending returns up to limit bookings still pending that were
// created before cutoff, oldest first.
func (r *BookingRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = 'pending' AND created_at < $1
		 ORDER BY created_at
		 LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("find stale pending bookings: %w", err)
	}
	return collectBookings(rows)
}

// LockPending locks a booking that is still pending. Returns nil, nil if the
// booking is gone or has already left pending.
func (r *BookingRepository) LockPending(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND status = 'pending' FOR UPDATE`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock pending booking %s: %w", id, err)
	}
	return b, nil
}

// HasOverlap reports whether a live booking of the property intersects [checkIn, checkOut).
func (r *BookingRepository) HasOverlap(ctx context.Context, q database.TxQuerier, propertyID int64, checkIn, checkOut time.Time) (bool, error) {
	var exists bool
	err := database.Or(q, r.pool).QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM bookings
		     WHERE property_id = $1 AND status IN ('pending', 'confirmed')
		       AND check_in < $3 AND check_out > $2
		 )`, propertyID, checkIn, checkOut).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap for property %d: %w", propertyID, err)
	}
	return exists, nil
}

// CompleteFinished moves confirmed bookings whose stay ended before cutoff to
// completed and returns them.
func (r *BookingRepository) CompleteFinished(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE bookings SET status = 'completed', updated_at = NOW()
		 WHERE status = 'confirmed' AND check_out < $1
		 RETURNING `+bookingColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("complete finished bookings: %w", err)
	}
	return collectBookings(rows)
}

// FindUnreviewed returns completed property bookings whose stay ended in
// [from, to) and that have no review yet.
func (r *BookingRepository) FindUnreviewed(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings b
		 WHERE b.status = 'completed' AND b.property_id IS NOT NULL
		   AND b.check_out >= $1 AND b.check_out < $2
		   AND NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.booking_id = b.id)
		 ORDER BY b.check_out`, from, to)
	if err != nil {
		return nil, fmt.Errorf("find unreviewed bookings: %w", err)
	}
	return collectBookings(rows)
}
