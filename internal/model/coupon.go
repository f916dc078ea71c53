package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType describes how a coupon or deposit value is applied to an amount.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// IsValid reports whether t is a known discount type.
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount:
		return true
	}
	return false
}

// CouponStatus is the administrative state of a coupon.
type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponExpired  CouponStatus = "expired"
	CouponDisabled CouponStatus = "disabled"
)

// CouponRejection names the first rule a coupon failed during evaluation.
type CouponRejection string

const (
	CouponNotFound           CouponRejection = "NOT_FOUND"
	CouponInactive           CouponRejection = "INACTIVE"
	CouponExpiredWindow      CouponRejection = "EXPIRED"
	CouponMinOrderNotMet     CouponRejection = "MIN_ORDER_NOT_MET"
	CouponUsageLimitExceeded CouponRejection = "USAGE_LIMIT_EXCEEDED"
)

// Coupon represents a discount code.
type Coupon struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Type           DiscountType    `json:"type"`
	Value          decimal.Decimal `json:"value"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	UsageLimit     *int            `json:"usage_limit"`
	UsedCount      int             `json:"used_count"`
	Status         CouponStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CouponRequest is the DTO for creating or replacing a coupon.
type CouponRequest struct {
	Code           string          `json:"code" validate:"required,notblank,max=50"`
	Type           DiscountType    `json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value          decimal.Decimal `json:"value" validate:"gt=0"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
	EndDate        time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" validate:"gte=0"`
	UsageLimit     *int            `json:"usage_limit" validate:"omitempty,gte=1"`
	Status         CouponStatus    `json:"status" validate:"omitempty,oneof=active expired disabled"`
}

// ValidateCouponRequest is the DTO for checking a code against an order amount.
type ValidateCouponRequest struct {
	Code        string          `json:"code" validate:"required,notblank,max=50"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"gt=0"`
}

// CouponEvaluation is the outcome of checking a coupon against an order amount.
// When Valid is false only Code and Reason are meaningful.
type CouponEvaluation struct {
	Valid          bool            `json:"valid"`
	CouponID       int64           `json:"coupon_id,omitempty"`
	Code           string          `json:"code"`
	Type           DiscountType    `json:"type,omitempty"`
	Value          decimal.Decimal `json:"value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Reason         CouponRejection `json:"reason,omitempty"`
}
