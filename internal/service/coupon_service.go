package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/pricing"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

// CouponService provides coupon administration and evaluation.
type CouponService struct {
	couponRepo CouponRepositoryInterface
	now        func() time.Time
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(couponRepo CouponRepositoryInterface) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: time.Now}
}

func couponFromRequest(req *model.CouponRequest) *model.Coupon {
	status := req.Status
	if status == "" {
		status = model.CouponActive
	}
	return &model.Coupon{
		Code:           req.Code,
		Type:           req.Type,
		Value:          req.Value,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		Status:         status,
	}
}

// Create stores a new coupon.
// Returns ErrCouponExists if the code is taken, ErrInvalidRequest on a nil request.
func (s *CouponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	c := couponFromRequest(req)
	if err := s.couponRepo.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a coupon by id or ErrCouponNotFound.
func (s *CouponService) Get(ctx context.Context, id int64) (*model.Coupon, error) {
	c, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if c == nil {
		return nil, ErrCouponNotFound
	}
	return c, nil
}

// List returns all coupons.
func (s *CouponService) List(ctx context.Context) ([]model.Coupon, error) {
	return s.couponRepo.List(ctx)
}

// Update replaces the editable fields of a coupon. The usage counter is kept.
func (s *CouponService) Update(ctx context.Context, id int64, req *model.CouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	c := couponFromRequest(req)
	c.ID = id
	if err := s.couponRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a coupon.
func (s *CouponService) Delete(ctx context.Context, id int64) error {
	return s.couponRepo.Delete(ctx, id)
}

// EvaluateCoupon checks c against orderAmount at time now. Rules are checked in
// order and the first failure is reported. A nil coupon is NOT_FOUND.
func EvaluateCoupon(c *model.Coupon, code string, orderAmount decimal.Decimal, now time.Time) model.CouponEvaluation {
	ev := model.CouponEvaluation{Code: code}
	switch {
	case c == nil:
		ev.Reason = model.CouponNotFound
	case c.Status != model.CouponActive:
		ev.Reason = model.CouponInactive
	case now.Before(c.StartDate) || now.After(c.EndDate):
		ev.Reason = model.CouponExpiredWindow
	case orderAmount.LessThan(c.MinOrderAmount):
		ev.Reason = model.CouponMinOrderNotMet
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		ev.Reason = model.CouponUsageLimitExceeded
	}
	if ev.Reason != "" {
		return ev
	}

	discount := pricing.Discount(c.Type, c.Value, orderAmount)
	ev.Valid = true
	ev.CouponID = c.ID
	ev.Code = c.Code
	ev.Type = c.Type
	ev.Value = c.Value
	ev.DiscountAmount = discount
	ev.FinalAmount = orderAmount.Sub(discount)
	return ev
}

// Evaluate looks up code (inside q when given) and checks it against orderAmount.
// Rule failures are reported in the evaluation; only infrastructure failures are errors.
func (s *CouponService) Evaluate(ctx context.Context, q database.TxQuerier, code string, orderAmount decimal.Decimal) (*model.CouponEvaluation, error) {
	c, err := s.couponRepo.GetByCode(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	ev := EvaluateCoupon(c, code, orderAmount, s.now())
	return &ev, nil
}

// Validate evaluates a coupon for a client preview.
// Returns ErrInvalidCoupon with the rejection as reason when the coupon cannot be used.
func (s *CouponService) Validate(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	ev, err := s.Evaluate(ctx, nil, req.Code, req.OrderAmount)
	if err != nil {
		return nil, err
	}
	if !ev.Valid {
		return nil, rejectionError(ev)
	}
	return ev, nil
}

// IncrementUsage records one redemption, refusing to pass the usage limit.
func (s *CouponService) IncrementUsage(ctx context.Context, q database.TxQuerier, id int64) error {
	err := s.couponRepo.IncrementUsage(ctx, q, id)
	if err != nil && !errors.Is(err, ErrUsageLimitExceeded) {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return err
}

func rejectionError(ev *model.CouponEvaluation) *Error {
	var msg string
	switch ev.Reason {
	case model.CouponNotFound:
		msg = "coupon not found"
	case model.CouponInactive:
		msg = "coupon is not active"
	case model.CouponExpiredWindow:
		msg = "coupon is expired or not yet valid"
	case model.CouponMinOrderNotMet:
		msg = "order amount is below the coupon minimum"
	case model.CouponUsageLimitExceeded:
		msg = "coupon usage limit reached"
	default:
		msg = "coupon cannot be applied"
	}
	return ErrInvalidCoupon.WithReason(string(ev.Reason), msg)
}
