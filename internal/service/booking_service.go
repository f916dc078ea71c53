package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/pricing"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const (
	defaultCurrency        = "SAR"
	defaultChargeTimeout   = 15 * time.Second
	defaultConfirmAttempts = 3
	defaultConfirmBackoff  = 200 * time.Millisecond

	reconcileBatch = 100
)

// BookingConfig holds the payment settings of the booking flow.
type BookingConfig struct {
	Currency      string
	ChargeTimeout time.Duration
	// ConfirmAttempts bounds how often a charged booking is confirmed before
	// it is left pending for ReconcilePending. ConfirmBackoff doubles between tries.
	ConfirmAttempts int
	ConfirmBackoff  time.Duration
}

// BookingDeps are the collaborators of BookingService. Notifier and Events may be nil.
type BookingDeps struct {
	Bookings   BookingRepositoryInterface
	Rooms      RoomRepositoryInterface
	Properties PropertyRepositoryInterface
	Coupons    *CouponService
	Gateway    PaymentGateway
	Notifier   Notifier
	Events     EventPublisher
}

// BookingService creates bookings: reserve inside a transaction, charge
// outside it, then confirm or compensate.
type BookingService struct {
	pool       TxBeginner
	bookings   BookingRepositoryInterface
	rooms      RoomRepositoryInterface
	properties PropertyRepositoryInterface
	coupons    *CouponService
	gateway    PaymentGateway
	notifier   Notifier
	events     EventPublisher
	cfg        BookingConfig
	now        func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(pool TxBeginner, deps BookingDeps, cfg BookingConfig) *BookingService {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.ChargeTimeout <= 0 {
		cfg.ChargeTimeout = defaultChargeTimeout
	}
	if cfg.ConfirmAttempts <= 0 {
		cfg.ConfirmAttempts = defaultConfirmAttempts
	}
	if cfg.ConfirmBackoff <= 0 {
		cfg.ConfirmBackoff = defaultConfirmBackoff
	}
	return &BookingService{
		pool:       pool,
		bookings:   deps.Bookings,
		rooms:      deps.Rooms,
		properties: deps.Properties,
		coupons:    deps.Coupons,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		events:     deps.Events,
		cfg:        cfg,
		now:        time.Now,
	}
}

// quote is the price of a booking after an optional coupon.
type quote struct {
	original   decimal.Decimal
	discount   decimal.Decimal
	final      decimal.Decimal
	couponID   *int64
	couponCode string
}

func (s *BookingService) quote(ctx context.Context, q database.TxQuerier, code string, amount decimal.Decimal) (quote, error) {
	qt := quote{original: amount, discount: decimal.Zero, final: amount}
	code = strings.TrimSpace(code)
	if code == "" {
		return qt, nil
	}
	ev, err := s.coupons.Evaluate(ctx, q, code, amount)
	if err != nil {
		return qt, err
	}
	if !ev.Valid {
		return qt, rejectionError(ev)
	}
	id := ev.CouponID
	qt.discount = ev.DiscountAmount
	qt.final = ev.FinalAmount
	qt.couponID = &id
	qt.couponCode = ev.Code
	return qt, nil
}

// CreateRoomBooking books a room for a date range, charging the full
// discounted price. The room stays taken unless the charge fails.
func (s *BookingService) CreateRoomBooking(ctx context.Context, in model.RoomBookingInput) (*model.BookingResult, error) {
	b, err := s.reserveRoom(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.BookingEventCreated, b)

	pc := pendingCharge{
		amount:      b.FinalAmount,
		methodRef:   in.PaymentMethodRef,
		description: fmt.Sprintf("Room booking %s", b.ID),
		metadata: map[string]string{
			"booking_id":   b.ID.String(),
			"user_id":      b.UserID.String(),
			"room_id":      in.RoomID.String(),
			"payment_type": "full",
		},
	}
	txnID, err := s.settle(ctx, b, pc)
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(ctx, b)
	return &model.BookingResult{Booking: b, PaymentSummary: summaryOf(b, txnID)}, nil
}

func (s *BookingService) reserveRoom(ctx context.Context, in model.RoomBookingInput) (*model.Booking, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	room, err := s.rooms.GetForUpdate(ctx, tx, in.RoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room for update: %w", err)
	}
	if !room.Available {
		return nil, ErrRoomNotAvailable
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, ErrInvalidDateRange
	}

	qt, err := s.quote(ctx, tx, in.CouponCode, room.Price)
	if err != nil {
		return nil, err
	}

	roomID := room.ID
	b := &model.Booking{
		ID:              uuid.New(),
		UserID:          in.UserID,
		RoomID:          &roomID,
		CheckIn:         in.StartDate,
		CheckOut:        in.EndDate,
		Status:          model.BookingPending,
		PaymentStatus:   model.PaymentPending,
		CouponID:        qt.couponID,
		CouponCode:      qt.couponCode,
		OriginalAmount:  qt.original,
		DiscountAmount:  qt.discount,
		FinalAmount:     qt.final,
		DepositAmount:   decimal.Zero,
		DepositPaid:     decimal.Zero,
		RemainingAmount: qt.final,
		GuestCount:      1,
	}
	if err := s.bookings.Insert(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := s.rooms.MarkUnavailable(ctx, tx, roomID); err != nil {
		if errors.Is(err, ErrRoomNotAvailable) {
			return nil, ErrRoomNotAvailable
		}
		return nil, fmt.Errorf("mark room unavailable: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return b, nil
}

// CreatePropertyBooking books a property for a stay, charging only the
// deposit now. The deposit policy is applied to the whole stay
// (full_price x nights), not to the cached one-night calculated_deposit.
// The remainder is due on arrival.
func (s *BookingService) CreatePropertyBooking(ctx context.Context, in model.PropertyBookingInput) (*model.BookingResult, error) {
	b, p, err := s.reserveProperty(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.BookingEventCreated, b)

	pc := pendingCharge{
		amount:      b.DepositAmount,
		methodRef:   string(in.PaymentMethod),
		description: fmt.Sprintf("Deposit for %s", p.Name),
		metadata: map[string]string{
			"booking_id":   b.ID.String(),
			"user_id":      b.UserID.String(),
			"property_id":  strconv.FormatInt(p.ID, 10),
			"payment_type": "deposit",
		},
	}
	txnID, err := s.settle(ctx, b, pc)
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(ctx, b)
	return &model.BookingResult{
		Booking:        b,
		PaymentSummary: summaryOf(b, txnID),
		NextSteps: &model.NextSteps{
			Message:     fmt.Sprintf("Please have the remaining %s %s ready on arrival", b.RemainingAmount.StringFixed(2), s.cfg.Currency),
			CheckInTime: p.CheckInTime,
			ContactInfo: "We will contact you before your arrival",
		},
	}, nil
}

func (s *BookingService) reserveProperty(ctx context.Context, in model.PropertyBookingInput) (*model.Booking, *model.Property, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	p, err := s.properties.GetBookableForUpdate(ctx, tx, in.PropertyID)
	if err != nil {
		if errors.Is(err, ErrPropertyUnavailable) {
			return nil, nil, ErrPropertyUnavailable
		}
		return nil, nil, fmt.Errorf("get property for update: %w", err)
	}

	guests := in.GuestCount
	if guests <= 0 {
		guests = 1
	}
	if guests > p.Capacity {
		return nil, nil, ErrGuestCountExceeded
	}

	nights := pricing.Nights(in.CheckIn, in.CheckOut)
	if nights <= 0 {
		return nil, nil, ErrInvalidDateRange
	}

	overlap, err := s.bookings.HasOverlap(ctx, tx, p.ID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlap {
		return nil, nil, ErrPropertyDatesTaken
	}

	total := p.FullPrice.Mul(decimal.NewFromInt(int64(nights)))
	qt, err := s.quote(ctx, tx, in.CouponCode, total)
	if err != nil {
		return nil, nil, err
	}

	// The policy is applied to the whole stay; calculated_deposit is the per-night quote.
	deposit := pricing.Deposit(total, p.DepositType, p.DepositValue)
	if deposit.GreaterThan(qt.final) {
		return nil, nil, ErrDepositExceedsTotal
	}

	propertyID := p.ID
	b := &model.Booking{
		ID:              uuid.New(),
		UserID:          in.UserID,
		PropertyID:      &propertyID,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Status:          model.BookingPending,
		PaymentStatus:   model.PaymentPending,
		CouponID:        qt.couponID,
		CouponCode:      qt.couponCode,
		OriginalAmount:  qt.original,
		DiscountAmount:  qt.discount,
		FinalAmount:     qt.final,
		DepositAmount:   deposit,
		DepositPaid:     decimal.Zero,
		RemainingAmount: qt.final.Sub(deposit),
		PaymentMethod:   in.PaymentMethod,
		GuestCount:      guests,
		SpecialRequests: in.SpecialRequests,
	}
	if err := s.bookings.Insert(ctx, tx, b); err != nil {
		return nil, nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit booking: %w", err)
	}
	return b, p, nil
}

type pendingCharge struct {
	amount      decimal.Decimal
	methodRef   string
	description string
	metadata    map[string]string
}

// markPaid moves a booking whose upfront payment was taken to confirmed.
// Rooms are paid in full, properties by deposit.
func markPaid(b *model.Booking) {
	b.Status = model.BookingConfirmed
	if !b.IsPropertyBooking() {
		b.PaymentStatus = model.PaymentPaid
		b.RemainingAmount = decimal.Zero
		return
	}
	b.DepositPaid = b.DepositAmount
	b.PaymentStatus = model.PaymentPartial
	if b.RemainingAmount.IsZero() {
		b.PaymentStatus = model.PaymentPaid
	}
}

// upfront is the amount charged when a booking is created.
func upfront(b *model.Booking) decimal.Decimal {
	if b.IsPropertyBooking() {
		return b.DepositAmount
	}
	return b.FinalAmount
}

// settle charges a reserved booking and confirms it, or cancels it when the
// charge fails. A zero amount confirms without calling the gateway.
func (s *BookingService) settle(ctx context.Context, b *model.Booking, pc pendingCharge) (string, error) {
	var txnID string
	if pc.amount.IsPositive() {
		id, err := s.charge(ctx, pc)
		if err != nil {
			s.compensate(ctx, b, err)
			return "", err
		}
		txnID = id
	}

	b.PaymentReference = txnID
	markPaid(b)
	if err := s.confirmWithRetry(ctx, b); err != nil {
		log.Error().
			Err(err).
			Str("booking_id", b.ID.String()).
			Str("transaction_id", txnID).
			Msg("booking charged but confirmation failed, left pending for reconciliation")
		return "", err
	}
	s.publish(ctx, model.BookingEventConfirmed, b)
	return txnID, nil
}

func (s *BookingService) charge(ctx context.Context, pc pendingCharge) (string, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.ChargeTimeout)
	defer cancel()

	res, err := s.gateway.Charge(chargeCtx, model.ChargeRequest{
		AmountMinor: pricing.MinorUnits(pc.amount),
		Currency:    s.cfg.Currency,
		MethodRef:   pc.methodRef,
		Description: pc.description,
		Metadata:    pc.metadata,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(chargeCtx.Err(), context.DeadlineExceeded) {
			return "", ErrPaymentFailed.WithReason("timeout", "payment timed out")
		}
		log.Warn().Err(err).Str("booking_id", pc.metadata["booking_id"]).Msg("payment gateway error")
		return "", ErrPaymentProcessingError
	}
	if res == nil || !res.Success {
		msg := "payment was declined"
		if res != nil && res.Message != "" {
			msg = res.Message
		}
		return "", ErrPaymentFailed.WithReason("declined", msg)
	}
	return res.TransactionID, nil
}

// confirmWithRetry confirms a charged booking, retrying with a doubling
// backoff. It runs detached from the request so a client disconnect cannot
// leave a charged booking pending.
func (s *BookingService) confirmWithRetry(ctx context.Context, b *model.Booking) error {
	ctx = context.WithoutCancel(ctx)
	backoff := s.cfg.ConfirmBackoff
	var err error
	for attempt := 1; attempt <= s.cfg.ConfirmAttempts; attempt++ {
		if err = s.confirm(ctx, b); err == nil {
			return nil
		}
		if attempt == s.cfg.ConfirmAttempts {
			break
		}
		log.Warn().
			Err(err).
			Str("booking_id", b.ID.String()).
			Int("attempt", attempt).
			Dur("next_retry_in", backoff).
			Msg("booking confirmation failed, retrying")
		time.Sleep(backoff)
		backoff *= 2
	}
	return err
}

// confirm persists a paid booking and redeems its coupon in one transaction.
func (s *BookingService) confirm(ctx context.Context, b *model.Booking) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.confirmInTx(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *BookingService) confirmInTx(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	if err := s.bookings.UpdatePayment(ctx, tx, b); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	if b.CouponID != nil {
		err := s.coupons.IncrementUsage(ctx, tx, *b.CouponID)
		switch {
		case errors.Is(err, ErrUsageLimitExceeded):
			log.Warn().
				Str("booking_id", b.ID.String()).
				Int64("coupon_id", *b.CouponID).
				Msg("coupon limit reached by a concurrent booking, usage not counted")
		case err != nil:
			return err
		}
	}
	return nil
}

// compensate cancels a booking whose charge failed and frees its room.
func (s *BookingService) compensate(ctx context.Context, b *model.Booking, cause error) {
	ctx = context.WithoutCancel(ctx)
	b.Status = model.BookingCancelled
	b.PaymentStatus = model.PaymentPending
	b.Notes = "payment failed: " + failureText(cause)

	if err := s.cancel(ctx, b); err != nil {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to cancel unpaid booking")
	}
	s.publish(ctx, model.BookingEventCancelled, b)
	s.notifyCancelled(ctx, b, failureText(cause))
}

func (s *BookingService) cancel(ctx context.Context, b *model.Booking) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.cancelInTx(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *BookingService) cancelInTx(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	if err := s.bookings.UpdatePayment(ctx, tx, b); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if b.RoomID != nil {
		if err := s.rooms.Release(ctx, tx, *b.RoomID); err != nil {
			return fmt.Errorf("release room: %w", err)
		}
	}
	return nil
}

// ReconcilePending settles bookings still pending that were created before
// cutoff. A booking the gateway holds an approved charge for (or that has
// nothing to pay) is confirmed; any other is cancelled and its room freed.
func (s *BookingService) ReconcilePending(ctx context.Context, cutoff time.Time) (confirmed, cancelled int, err error) {
	stale, err := s.bookings.FindStalePending(ctx, cutoff, reconcileBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("find stale bookings: %w", err)
	}
	for i := range stale {
		b := &stale[i]
		status, err := s.reconcile(ctx, b)
		if err != nil {
			log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to reconcile pending booking")
			continue
		}
		switch status {
		case model.BookingConfirmed:
			confirmed++
		case model.BookingCancelled:
			cancelled++
		}
	}
	if confirmed+cancelled > 0 {
		log.Info().Int("confirmed", confirmed).Int("cancelled", cancelled).Msg("pending bookings reconciled")
	}
	return confirmed, cancelled, nil
}

// reconcile settles one stale booking and returns its new status, or "" when
// it left pending in the meantime.
func (s *BookingService) reconcile(ctx context.Context, b *model.Booking) (model.BookingStatus, error) {
	paid := !upfront(b).IsPositive()
	var txnID string
	if !paid {
		res, err := s.gateway.Lookup(ctx, b.ID.String())
		if err != nil {
			return "", fmt.Errorf("look up charge: %w", err)
		}
		if res != nil && res.Success {
			paid = true
			txnID = res.TransactionID
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := s.bookings.LockPending(ctx, tx, b.ID)
	if err != nil {
		return "", fmt.Errorf("lock booking: %w", err)
	}
	if cur == nil {
		return "", nil
	}
	if paid {
		cur.PaymentReference = txnID
		markPaid(cur)
		err = s.confirmInTx(ctx, tx, cur)
	} else {
		cur.Status = model.BookingCancelled
		cur.PaymentStatus = model.PaymentPending
		cur.Notes = "payment not confirmed"
		err = s.cancelInTx(ctx, tx, cur)
	}
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit reconciliation: %w", err)
	}

	*b = *cur
	if paid {
		s.publish(ctx, model.BookingEventConfirmed, b)
		s.notifyConfirmed(ctx, b)
	} else {
		s.publish(ctx, model.BookingEventCancelled, b)
		s.notifyCancelled(ctx, b, "payment could not be confirmed")
	}
	return b.Status, nil
}

func failureText(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "unexpected error"
}

// GetBooking returns a booking owned by userID, or ErrBookingNotFound.
func (s *BookingService) GetBooking(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// ListBookings returns the bookings of a user.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func summaryOf(b *model.Booking, txnID string) model.PaymentSummary {
	return model.PaymentSummary{
		TotalAmount:     b.OriginalAmount,
		DiscountAmount:  b.DiscountAmount,
		FinalAmount:     b.FinalAmount,
		DepositPaid:     b.DepositPaid,
		RemainingAmount: b.RemainingAmount,
		PaymentMethod:   b.PaymentMethod,
		TransactionID:   txnID,
	}
}

func (s *BookingService) notifyConfirmed(ctx context.Context, b *model.Booking) {
	body := fmt.Sprintf("Your booking %s from %s to %s is confirmed.",
		shortID(b.ID), b.CheckIn.Format(time.DateOnly), b.CheckOut.Format(time.DateOnly))
	s.notify(ctx, b.UserID, model.Message{
		Type:         model.NotificationBookingConfirmed,
		Title:        "Booking confirmed",
		Body:         body,
		Data:         map[string]string{"booking_id": b.ID.String()},
		SMS:          body,
		EmailSubject: "Booking confirmation",
		EmailBody: fmt.Sprintf("%s\n\nTotal: %s %s\nPaid: %s %s\nRemaining: %s %s\n", body,
			b.FinalAmount.StringFixed(2), s.cfg.Currency,
			b.FinalAmount.Sub(b.RemainingAmount).StringFixed(2), s.cfg.Currency,
			b.RemainingAmount.StringFixed(2), s.cfg.Currency),
	})
}

func (s *BookingService) notifyCancelled(ctx context.Context, b *model.Booking, reason string) {
	s.notify(ctx, b.UserID, model.Message{
		Type:  model.NotificationBookingCancelled,
		Title: "Booking cancelled",
		Body:  "Your booking could not be completed: " + reason,
		Data:  map[string]string{"booking_id": b.ID.String()},
	})
}

func (s *BookingService) notify(ctx context.Context, userID uuid.UUID, msg model.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, msg)
}

func (s *BookingService) publish(ctx context.Context, t model.BookingEventType, b *model.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, model.NewBookingEvent(t, b, s.now())); err != nil {
		log.Warn().Err(err).Str("booking_id", b.ID.String()).Str("event", string(t)).Msg("failed to publish booking event")
	}
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
