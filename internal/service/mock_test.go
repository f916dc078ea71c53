package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	commits    int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
	tx      *mockTx
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	if m.tx == nil {
		m.tx = &mockTx{}
	}
	return m.tx, nil
}

// mockCouponRepository is a mock implementation of CouponRepositoryInterface.
type mockCouponRepository struct {
	insertFn         func(ctx context.Context, c *model.Coupon) error
	getByIDFn        func(ctx context.Context, id int64) (*model.Coupon, error)
	getByCodeFn      func(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error)
	listFn           func(ctx context.Context) ([]model.Coupon, error)
	updateFn         func(ctx context.Context, c *model.Coupon) error
	deleteFn         func(ctx context.Context, id int64) error
	incrementUsageFn func(ctx context.Context, q database.TxQuerier, id int64) error
	increments       int
}

func (m *mockCouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, c)
	}
	return nil
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, q, code)
	}
	return nil, nil
}

func (m *mockCouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Coupon{}, nil
}

func (m *mockCouponRepository) Update(ctx context.Context, c *model.Coupon) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, c)
	}
	return nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCouponRepository) IncrementUsage(ctx context.Context, q database.TxQuerier, id int64) error {
	m.increments++
	if m.incrementUsageFn != nil {
		return m.incrementUsageFn(ctx, q, id)
	}
	return nil
}

// mockPropertyRepository is a mock implementation of PropertyRepositoryInterface.
type mockPropertyRepository struct {
	insertFn               func(ctx context.Context, p *model.Property) error
	updateFn               func(ctx context.Context, p *model.Property) error
	getByIDFn              func(ctx context.Context, q database.TxQuerier, id int64) (*model.Property, error)
	getBookableForUpdateFn func(ctx context.Context, tx database.TxQuerier, id int64) (*model.Property, error)
	listFn                 func(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error)
	deactivateFn           func(ctx context.Context, id int64) error
	updateRatingFn         func(ctx context.Context, q database.TxQuerier, id int64, rating decimal.Decimal, count int) error
	ownerOfFn              func(ctx context.Context, id int64) (uuid.UUID, error)
}

func (m *mockPropertyRepository) Insert(ctx context.Context, p *model.Property) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	return nil
}

func (m *mockPropertyRepository) Update(ctx context.Context, p *model.Property) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockPropertyRepository) GetByID(ctx context.Context, q database.TxQuerier, id int64) (*model.Property, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, q, id)
	}
	return nil, nil
}

func (m *mockPropertyRepository) GetBookableForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Property, error) {
	if m.getBookableForUpdateFn != nil {
		return m.getBookableForUpdateFn(ctx, tx, id)
	}
	return nil, ErrPropertyUnavailable
}

func (m *mockPropertyRepository) List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []model.Property{}, nil
}

func (m *mockPropertyRepository) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

func (m *mockPropertyRepository) UpdateRating(ctx context.Context, q database.TxQuerier, id int64, rating decimal.Decimal, count int) error {
	if m.updateRatingFn != nil {
		return m.updateRatingFn(ctx, q, id, rating, count)
	}
	return nil
}

func (m *mockPropertyRepository) OwnerOf(ctx context.Context, id int64) (uuid.UUID, error) {
	if m.ownerOfFn != nil {
		return m.ownerOfFn(ctx, id)
	}
	return uuid.Nil, nil
}

// mockRoomRepository is a mock implementation of RoomRepositoryInterface.
type mockRoomRepository struct {
	insertFn          func(ctx context.Context, rm *model.Room) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*model.Room, error)
	getForUpdateFn    func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Room, error)
	listFn            func(ctx context.Context, roomType string) ([]model.Room, error)
	markUnavailableFn func(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	releaseFn         func(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	released          []uuid.UUID
}

func (m *mockRoomRepository) Insert(ctx context.Context, rm *model.Room) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rm)
	}
	return nil
}

func (m *mockRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRoomRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Room, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrRoomNotFound
}

func (m *mockRoomRepository) List(ctx context.Context, roomType string) ([]model.Room, error) {
	if m.listFn != nil {
		return m.listFn(ctx, roomType)
	}
	return []model.Room{}, nil
}

func (m *mockRoomRepository) MarkUnavailable(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	if m.markUnavailableFn != nil {
		return m.markUnavailableFn(ctx, q, id)
	}
	return nil
}

func (m *mockRoomRepository) Release(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	m.released = append(m.released, id)
	if m.releaseFn != nil {
		return m.releaseFn(ctx, q, id)
	}
	return nil
}

// mockBookingRepository is a mock implementation of BookingRepositoryInterface.
// It keeps the last written state of every booking.
type mockBookingRepository struct {
	insertFn           func(ctx context.Context, q database.TxQuerier, b *model.Booking) error
	getByIDFn          func(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Booking, error)
	listByUserFn       func(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
	updatePaymentFn    func(ctx context.Context, q database.TxQuerier, b *model.Booking) error
	hasOverlapFn       func(ctx context.Context, q database.TxQuerier, propertyID int64, checkIn, checkOut time.Time) (bool, error)
	findStalePendingFn func(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error)

	mu     sync.Mutex
	stored map[uuid.UUID]model.Booking
}

func (m *mockBookingRepository) save(b *model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		m.stored = map[uuid.UUID]model.Booking{}
	}
	m.stored[b.ID] = *b
}

func (m *mockBookingRepository) Insert(ctx context.Context, q database.TxQuerier, b *model.Booking) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, q, b); err != nil {
			return err
		}
	}
	m.save(b)
	return nil
}

func (m *mockBookingRepository) GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, q, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.stored[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *mockBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.Booking{}, nil
}

func (m *mockBookingRepository) UpdatePayment(ctx context.Context, q database.TxQuerier, b *model.Booking) error {
	if m.updatePaymentFn != nil {
		if err := m.updatePaymentFn(ctx, q, b); err != nil {
			return err
		}
	}
	m.save(b)
	return nil
}

func (m *mockBookingRepository) HasOverlap(ctx context.Context, q database.TxQuerier, propertyID int64, checkIn, checkOut time.Time) (bool, error) {
	if m.hasOverlapFn != nil {
		return m.hasOverlapFn(ctx, q, propertyID, checkIn, checkOut)
	}
	return false, nil
}

func (m *mockBookingRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error) {
	if m.findStalePendingFn != nil {
		return m.findStalePendingFn(ctx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stale := []model.Booking{}
	for _, b := range m.stored {
		if b.Status == model.BookingPending && b.CreatedAt.Before(cutoff) {
			stale = append(stale, b)
		}
	}
	return stale, nil
}

func (m *mockBookingRepository) LockPending(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.stored[id]; ok && b.Status == model.BookingPending {
		return &b, nil
	}
	return nil, nil
}

func (m *mockBookingRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

// mockReviewRepository is an in-memory ReviewRepositoryInterface.
type mockReviewRepository struct {
	insertFn func(ctx context.Context, q database.TxQuerier, rv *model.Review) error

	reviews map[uuid.UUID]*model.Review
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: map[uuid.UUID]*model.Review{}}
}

func (m *mockReviewRepository) Insert(ctx context.Context, q database.TxQuerier, rv *model.Review) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, rv)
	}
	for _, existing := range m.reviews {
		if existing.BookingID == rv.BookingID {
			return ErrAlreadyReviewed
		}
	}
	stored := *rv
	m.reviews[rv.ID] = &stored
	return nil
}

func (m *mockReviewRepository) GetByID(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Review, error) {
	if rv, ok := m.reviews[id]; ok {
		out := *rv
		return &out, nil
	}
	return nil, nil
}

func (m *mockReviewRepository) GetByBooking(ctx context.Context, q database.TxQuerier, bookingID uuid.UUID) (*model.Review, error) {
	for _, rv := range m.reviews {
		if rv.BookingID == bookingID {
			out := *rv
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockReviewRepository) Update(ctx context.Context, q database.TxQuerier, rv *model.Review) error {
	if _, ok := m.reviews[rv.ID]; !ok {
		return ErrReviewNotFound
	}
	stored := *rv
	m.reviews[rv.ID] = &stored
	return nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	if _, ok := m.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepository) ApprovedRatings(ctx context.Context, q database.TxQuerier, propertyID int64) ([]int, error) {
	ratings := []int{}
	for _, rv := range m.reviews {
		if rv.PropertyID == propertyID && rv.IsApproved {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}

func (m *mockReviewRepository) ListByProperty(ctx context.Context, propertyID int64, filter model.ReviewFilter) ([]model.Review, int, error) {
	out := []model.Review{}
	for _, rv := range m.reviews {
		if rv.PropertyID == propertyID && rv.IsApproved && (filter.Rating == 0 || rv.Rating == filter.Rating) {
			out = append(out, *rv)
		}
	}
	return out, len(out), nil
}

func (m *mockReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	out := []model.Review{}
	for _, rv := range m.reviews {
		if rv.UserID == userID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepository) RatingDistribution(ctx context.Context, propertyID int64) (map[int]int, error) {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, rv := range m.reviews {
		if rv.PropertyID == propertyID && rv.IsApproved {
			dist[rv.Rating]++
		}
	}
	return dist, nil
}

// mockGateway is a mock implementation of PaymentGateway.
type mockGateway struct {
	chargeFn func(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error)
	lookupFn func(ctx context.Context, bookingID string) (*model.ChargeResult, error)
	requests []model.ChargeRequest
	lookups  []string
}

func (m *mockGateway) Lookup(ctx context.Context, bookingID string) (*model.ChargeResult, error) {
	m.lookups = append(m.lookups, bookingID)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, bookingID)
	}
	return nil, nil
}

func (m *mockGateway) Charge(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error) {
	m.requests = append(m.requests, req)
	if m.chargeFn != nil {
		return m.chargeFn(ctx, req)
	}
	return &model.ChargeResult{Success: true, TransactionID: "txn_test"}, nil
}

// mockNotifier records notifications.
type mockNotifier struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]model.Message
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, msg model.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = map[uuid.UUID][]model.Message{}
	}
	m.messages[userID] = append(m.messages[userID], msg)
}

func (m *mockNotifier) sent(userID uuid.UUID) []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[userID]
}

// mockPublisher records booking events.
type mockPublisher struct {
	err    error
	events []model.BookingEvent
}

func (m *mockPublisher) PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockPublisher) types() []model.BookingEventType {
	out := make([]model.BookingEventType, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}
