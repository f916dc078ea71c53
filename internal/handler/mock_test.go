package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/validator"
)

const testSecret = "test-secret"

var (
	guestID = uuid.MustParse("3f8b5c1e-2d4a-4b6f-9c1d-7e2a1b3c4d5e")
	adminID = uuid.MustParse("9a1b2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c5d")
)

// mockCouponService is a mock implementation of CouponServiceInterface.
type mockCouponService struct {
	createFn   func(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)
	getFn      func(ctx context.Context, id int64) (*model.Coupon, error)
	listFn     func(ctx context.Context) ([]model.Coupon, error)
	updateFn   func(ctx context.Context, id int64, req *model.CouponRequest) (*model.Coupon, error)
	deleteFn   func(ctx context.Context, id int64) error
	validateFn func(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error)
}

func (m *mockCouponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &model.Coupon{ID: 1, Code: req.Code}, nil
}

func (m *mockCouponService) Get(ctx context.Context, id int64) (*model.Coupon, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Coupon{ID: id}, nil
}

func (m *mockCouponService) List(ctx context.Context) ([]model.Coupon, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Coupon{}, nil
}

func (m *mockCouponService) Update(ctx context.Context, id int64, req *model.CouponRequest) (*model.Coupon, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return &model.Coupon{ID: id, Code: req.Code}, nil
}

func (m *mockCouponService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCouponService) Validate(ctx context.Context, req *model.ValidateCouponRequest) (*model.CouponEvaluation, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, req)
	}
	return &model.CouponEvaluation{Valid: true, Code: req.Code}, nil
}

// mockBookingService is a mock implementation of BookingServiceInterface.
type mockBookingService struct {
	roomFn     func(ctx context.Context, in model.RoomBookingInput) (*model.BookingResult, error)
	propertyFn func(ctx context.Context, in model.PropertyBookingInput) (*model.BookingResult, error)
	getFn      func(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error)
	listFn     func(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
}

func (m *mockBookingService) CreateRoomBooking(ctx context.Context, in model.RoomBookingInput) (*model.BookingResult, error) {
	if m.roomFn != nil {
		return m.roomFn(ctx, in)
	}
	return &model.BookingResult{Booking: &model.Booking{ID: uuid.New(), UserID: in.UserID}}, nil
}

func (m *mockBookingService) CreatePropertyBooking(ctx context.Context, in model.PropertyBookingInput) (*model.BookingResult, error) {
	if m.propertyFn != nil {
		return m.propertyFn(ctx, in)
	}
	return &model.BookingResult{Booking: &model.Booking{ID: uuid.New(), UserID: in.UserID}}, nil
}

func (m *mockBookingService) GetBooking(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return &model.Booking{ID: id, UserID: userID}, nil
}

func (m *mockBookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []model.Booking{}, nil
}

// mockPropertyService is a mock implementation of PropertyServiceInterface.
type mockPropertyService struct {
	createFn     func(ctx context.Context, owner uuid.UUID, req *model.PropertyRequest) (*model.Property, error)
	updateFn     func(ctx context.Context, id int64, req *model.PropertyRequest) (*model.Property, error)
	getFn        func(ctx context.Context, id int64) (*model.Property, error)
	listFn       func(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error)
	deleteFn     func(ctx context.Context, id int64) error
	createRoomFn func(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error)
	getRoomFn    func(ctx context.Context, id uuid.UUID) (*model.Room, error)
	listRoomsFn  func(ctx context.Context, roomType string) ([]model.Room, error)
}

func (m *mockPropertyService) Create(ctx context.Context, owner uuid.UUID, req *model.PropertyRequest) (*model.Property, error) {
	if m.createFn != nil {
		return m.createFn(ctx, owner, req)
	}
	return &model.Property{ID: 1, Name: req.Name, CreatedBy: owner}, nil
}

func (m *mockPropertyService) Update(ctx context.Context, id int64, req *model.PropertyRequest) (*model.Property, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return &model.Property{ID: id, Name: req.Name}, nil
}

func (m *mockPropertyService) Get(ctx context.Context, id int64) (*model.Property, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Property{ID: id}, nil
}

func (m *mockPropertyService) List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []model.Property{}, nil
}

func (m *mockPropertyService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPropertyService) CreateRoom(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error) {
	if m.createRoomFn != nil {
		return m.createRoomFn(ctx, req)
	}
	return &model.Room{ID: uuid.New(), Name: req.Name}, nil
}

func (m *mockPropertyService) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	if m.getRoomFn != nil {
		return m.getRoomFn(ctx, id)
	}
	return &model.Room{ID: id}, nil
}

func (m *mockPropertyService) ListRooms(ctx context.Context, roomType string) ([]model.Room, error) {
	if m.listRoomsFn != nil {
		return m.listRoomsFn(ctx, roomType)
	}
	return []model.Room{}, nil
}

// mockReviewService is a mock implementation of ReviewServiceInterface.
type mockReviewService struct {
	createFn   func(ctx context.Context, userID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error)
	updateFn   func(ctx context.Context, userID, id uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error)
	deleteFn   func(ctx context.Context, userID, id uuid.UUID) error
	moderateFn func(ctx context.Context, id uuid.UUID, req *model.ModerateReviewRequest) (*model.Review, error)
	listFn     func(ctx context.Context, propertyID int64, filter model.ReviewFilter) (*model.ReviewPage, error)
	mineFn     func(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	statsFn    func(ctx context.Context, propertyID int64) (*model.RatingStats, error)
	inviteFn   func(ctx context.Context, userID, bookingID uuid.UUID) error
}

func (m *mockReviewService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, req)
	}
	return &model.Review{ID: uuid.New(), UserID: userID, Rating: req.Rating}, nil
}

func (m *mockReviewService) Update(ctx context.Context, userID, id uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, req)
	}
	return &model.Review{ID: id, UserID: userID}, nil
}

func (m *mockReviewService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockReviewService) Moderate(ctx context.Context, id uuid.UUID, req *model.ModerateReviewRequest) (*model.Review, error) {
	if m.moderateFn != nil {
		return m.moderateFn(ctx, id, req)
	}
	return &model.Review{ID: id}, nil
}

func (m *mockReviewService) ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) (*model.ReviewPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, propertyID, filter)
	}
	return &model.ReviewPage{Reviews: []model.Review{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockReviewService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	if m.mineFn != nil {
		return m.mineFn(ctx, userID)
	}
	return []model.Review{}, nil
}

func (m *mockReviewService) Stats(ctx context.Context, propertyID int64) (*model.RatingStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, propertyID)
	}
	return &model.RatingStats{PropertyID: propertyID}, nil
}

func (m *mockReviewService) SendInvitation(ctx context.Context, userID, bookingID uuid.UUID) error {
	if m.inviteFn != nil {
		return m.inviteFn(ctx, userID, bookingID)
	}
	return nil
}

// mockNotifications is a mock implementation of NotificationLister.
type mockNotifications struct {
	listFn func(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
}

func (m *mockNotifications) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return []model.Notification{}, nil
}

// mockPool implements a minimal interface for testing health checks
type mockPool struct {
	pingErr error
}

func (m *mockPool) Ping(ctx context.Context) error {
	return m.pingErr
}

// services bundles the mocks behind a test app. Nil fields get zero mocks.
type services struct {
	coupons       *mockCouponService
	bookings      *mockBookingService
	properties    *mockPropertyService
	reviews       *mockReviewService
	notifications *mockNotifications
	limiter       fiber.Handler
	// userCtx, when set, is installed as the request's user context.
	userCtx context.Context
}

func setupTestApp(s services) *fiber.App {
	if s.coupons == nil {
		s.coupons = &mockCouponService{}
	}
	if s.bookings == nil {
		s.bookings = &mockBookingService{}
	}
	if s.properties == nil {
		s.properties = &mockPropertyService{}
	}
	if s.reviews == nil {
		s.reviews = &mockReviewService{}
	}
	if s.notifications == nil {
		s.notifications = &mockNotifications{}
	}

	app := fiber.New()
	if s.userCtx != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.SetUserContext(s.userCtx)
			return c.Next()
		})
	}
	v := validator.New()
	Register(app, Handlers{
		Health:        NewHealthHandler(&mockPool{}, nil),
		Coupons:       NewCouponHandler(s.coupons, v),
		Bookings:      NewBookingHandler(s.bookings, v),
		Properties:    NewPropertyHandler(s.properties, v),
		Reviews:       NewReviewHandler(s.reviews, v),
		Notifications: NewNotificationHandler(s.notifications),
	}, RouterConfig{JWTSecret: testSecret, BookingLimiter: s.limiter})
	return app
}

// signToken issues an HS256 token for userID with role.
func signToken(t *testing.T, secret string, userID uuid.UUID, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func guestToken(t *testing.T) string {
	return signToken(t, testSecret, guestID, "user", time.Hour)
}

func adminToken(t *testing.T) string {
	return signToken(t, testSecret, adminID, RoleAdmin, time.Hour)
}

// do sends a request with an optional JSON body and bearer token and decodes
// a JSON object response.
func do(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var result map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &result), string(raw))
	}
	return resp, result
}
