package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/service"
)

const couponBody = `{
	"code": "SUMMER",
	"type": "percentage",
	"value": 10,
	"start_date": "2026-06-01T00:00:00Z",
	"end_date": "2026-09-01T00:00:00Z",
	"min_order_amount": 100,
	"usage_limit": 50
}`

func TestCreateCoupon_Success(t *testing.T) {
	var got *model.CouponRequest
	svc := &mockCouponService{
		createFn: func(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
			got = req
			return &model.Coupon{ID: 7, Code: req.Code, Status: model.CouponActive}, nil
		},
	}
	app := setupTestApp(services{coupons: svc})

	resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", couponBody, adminToken(t))

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(7), body["id"])
	require.NotNil(t, got)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, got.UsageLimit)
	assert.Equal(t, 50, *got.UsageLimit)
}

func TestCreateCoupon_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "missing code",
			body:    `{"type":"percentage","value":10,"start_date":"2026-06-01T00:00:00Z","end_date":"2026-09-01T00:00:00Z"}`,
			message: "invalid request: code is required",
		},
		{
			name:    "whitespace code",
			body:    `{"code":"   ","type":"percentage","value":10,"start_date":"2026-06-01T00:00:00Z","end_date":"2026-09-01T00:00:00Z"}`,
			message: "invalid request: code is required",
		},
		{
			name:    "unknown type",
			body:    `{"code":"X","type":"bogus","value":10,"start_date":"2026-06-01T00:00:00Z","end_date":"2026-09-01T00:00:00Z"}`,
			message: "invalid request: type must be one of [percentage fixed_amount]",
		},
		{
			name:    "zero value",
			body:    `{"code":"X","type":"percentage","value":0,"start_date":"2026-06-01T00:00:00Z","end_date":"2026-09-01T00:00:00Z"}`,
			message: "invalid request: value must be greater than 0",
		},
		{
			name:    "end before start",
			body:    `{"code":"X","type":"percentage","value":5,"start_date":"2026-09-01T00:00:00Z","end_date":"2026-06-01T00:00:00Z"}`,
			message: "invalid request: end_date is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			app := setupTestApp(services{
				coupons: &mockCouponService{
					createFn: func(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
						called = true
						return nil, nil
					},
				},
			})
			resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", tt.body, adminToken(t))

			assert.False(t, called, "service must not be called")
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_REQUEST", body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestCreateCoupon_InvalidJSON(t *testing.T) {
	app := setupTestApp(services{})

	resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", `{invalid`, adminToken(t))

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", body["message"])
}

func TestCreateCoupon_Duplicate(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			createFn: func(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
				return nil, service.ErrCouponExists
			},
		},
	})

	resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", couponBody, adminToken(t))

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "COUPON_EXISTS", body["error"])
}

func TestCreateCoupon_RequiresAdmin(t *testing.T) {
	app := setupTestApp(services{})

	resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", couponBody, guestToken(t))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["error"])

	resp, _ = do(t, app, http.MethodPost, "/api/admin/coupons", couponBody, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateCoupon_InternalError(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			createFn: func(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
				return nil, errors.New("connection reset")
			},
		},
	})

	resp, body := do(t, app, http.MethodPost, "/api/admin/coupons", couponBody, adminToken(t))

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "message")
}

func TestGetCoupon(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			getFn: func(ctx context.Context, id int64) (*model.Coupon, error) {
				if id == 7 {
					return &model.Coupon{ID: 7, Code: "SUMMER"}, nil
				}
				return nil, service.ErrCouponNotFound
			},
		},
	})

	resp, body := do(t, app, http.MethodGet, "/api/admin/coupons/7", "", adminToken(t))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "SUMMER", body["code"])

	resp, body = do(t, app, http.MethodGet, "/api/admin/coupons/8", "", adminToken(t))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "COUPON_NOT_FOUND", body["error"])

	resp, _ = do(t, app, http.MethodGet, "/api/admin/coupons/abc", "", adminToken(t))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListCoupons(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			listFn: func(ctx context.Context) ([]model.Coupon, error) {
				return []model.Coupon{{ID: 1, Code: "A"}, {ID: 2, Code: "B"}}, nil
			},
		},
	})

	resp, body := do(t, app, http.MethodGet, "/api/admin/coupons", "", adminToken(t))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["coupons"], 2)
}

func TestUpdateCoupon_PassesID(t *testing.T) {
	var gotID int64
	app := setupTestApp(services{
		coupons: &mockCouponService{
			updateFn: func(ctx context.Context, id int64, req *model.CouponRequest) (*model.Coupon, error) {
				gotID = id
				return &model.Coupon{ID: id, Code: req.Code}, nil
			},
		},
	})

	resp, _ := do(t, app, http.MethodPut, "/api/admin/coupons/12", couponBody, adminToken(t))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(12), gotID)
}

func TestDeleteCoupon(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			deleteFn: func(ctx context.Context, id int64) error {
				if id == 3 {
					return service.ErrCouponNotFound
				}
				return nil
			},
		},
	})

	resp, _ := do(t, app, http.MethodDelete, "/api/admin/coupons/2", "", adminToken(t))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/admin/coupons/3", "", adminToken(t))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestValidateCoupon_Valid(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			validateFn: func(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error) {
				discount := req.OrderAmount.Mul(decimal.NewFromFloat(0.1))
				return &model.CouponEvaluation{
					Valid:          true,
					Code:           req.Code,
					DiscountAmount: discount,
					FinalAmount:    req.OrderAmount.Sub(discount),
				}, nil
			},
		},
	})

	resp, body := do(t, app, http.MethodPost, "/api/coupons/validate", `{"code":"SUMMER","order_amount":500}`, guestToken(t))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "50", body["discount_amount"])
	assert.Equal(t, "450", body["final_amount"])
}

func TestValidateCoupon_Rejected(t *testing.T) {
	app := setupTestApp(services{
		coupons: &mockCouponService{
			validateFn: func(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error) {
				return nil, service.ErrInvalidCoupon.WithReason("MIN_ORDER_NOT_MET", "order amount is below the coupon minimum")
			},
		},
	})

	resp, body := do(t, app, http.MethodPost, "/api/coupons/validate", `{"code":"SUMMER","order_amount":50}`, guestToken(t))

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_COUPON", body["error"])
	assert.Equal(t, "MIN_ORDER_NOT_MET", body["reason"])
	assert.Equal(t, "order amount is below the coupon minimum", body["message"])
}

func TestValidateCoupon_MissingAmount(t *testing.T) {
	app := setupTestApp(services{})

	resp, body := do(t, app, http.MethodPost, "/api/coupons/validate", `{"code":"SUMMER"}`, guestToken(t))

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request: order_amount must be greater than 0", body["message"])
}
