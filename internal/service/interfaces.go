package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, c *model.Coupon) error
	GetByID(ctx context.Context, id int64) (*model.Coupon, error)
	GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id int64) error
	IncrementUsage(ctx context.Context, q database.TxQuerier, id int64) error
}

// PropertyRepositoryInterface defines the interface for property data access.
type PropertyRepositoryInterface interface {
	Insert(ctx context.Context, p *model.Property) error
	Update(ctx context.Context, p *model.Property) error
	GetByID(ctx context.Context, q database.TxQuerier, id int64) (*model.Property, error)
	GetBookableForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Property, error)
	List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error)
	Deactivate(ctx context.Context, id int64) error
	UpdateRating(ctx context.Context, q database.TxQuerier, id int64, rating decimal.Decimal, count int) error
	OwnerOf(ctx context.Context, id int64) (uuid.UUID, error)
}

// RoomRepositoryInterface defines the interface for room data access.
type RoomRepositoryInterface interface {
	Insert(ctx context.Context, rm *model.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Room, error)
	List(ctx context.Context, roomType string) ([]model.Room, error)
	MarkUnavailable(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	Release(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
}

// BookingRepositoryInterface defines the interface for booking data access.
type BookingRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, b *model.Booking) error
	GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
	UpdatePayment(ctx context.Context, q database.TxQuerier, b *model.Booking) error
	HasOverlap(ctx context.Context, q database.TxQuerier, propertyID int64, checkIn, checkOut time.Time) (bool, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error)
	LockPending(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error)
}

// ReviewRepositoryInterface defines the interface for review data access.
type ReviewRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, rv *model.Review) error
	GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Review, error)
	GetByBooking(ctx context.Context, q database.TxQuerier, bookingID uuid.UUID) (*model.Review, error)
	Update(ctx context.Context, q database.TxQuerier, rv *model.Review) error
	Delete(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	ApprovedRatings(ctx context.Context, q database.TxQuerier, propertyID int64) ([]int, error)
	ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) ([]model.Review, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	RatingDistribution(ctx context.Context, propertyID int64) (map[int]int, error)
}

// PaymentGateway charges a payment method.
type PaymentGateway interface {
	Charge(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error)
	// Lookup returns the approved charge made for a booking, or nil if none was taken.
	Lookup(ctx context.Context, bookingID string) (*model.ChargeResult, error)
}

// Notifier delivers a message to a user over every channel the user can be
// reached on. It never blocks the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg model.Message)
}

// EventPublisher publishes booking lifecycle events.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error
}
