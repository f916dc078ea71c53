package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const couponColumns = `id, code, type, value, start_date, end_date, min_order_amount,
	usage_limit, used_count, status, created_at, updated_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row rowScanner) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.StartDate,
		&c.EndDate,
		&c.MinOrderAmount,
		&c.UsageLimit,
		&c.UsedCount,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon and fills in its generated fields.
// Returns service.ErrCouponExists if the code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupons (code, type, value, start_date, end_date, min_order_amount, usage_limit, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, used_count, created_at, updated_at`,
		c.Code, c.Type, c.Value, c.StartDate, c.EndDate, c.MinOrderAmount, c.UsageLimit, c.Status,
	).Scan(&c.ID, &c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon %d: %w", id, err)
	}
	return c, nil
}

// GetByCode retrieves a coupon by its code, inside q when given.
// Returns nil, nil if the coupon is not found.
func (r *CouponRepository) GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
	row := database.Or(q, r.pool).QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return c, nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, nil
}

// Update replaces the editable fields of a coupon. used_count is never touched here.
func (r *CouponRepository) Update(ctx context.Context, c *model.Coupon) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE coupons
		 SET code = $2, type = $3, value = $4, start_date = $5, end_date = $6,
		     min_order_amount = $7, usage_limit = $8, status = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING used_count, created_at, updated_at`,
		c.ID, c.Code, c.Type, c.Value, c.StartDate, c.EndDate, c.MinOrderAmount, c.UsageLimit, c.Status,
	).Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrCouponNotFound
		}
		if database.IsUniqueViolation(err, "") {
			return service.ErrCouponExists
		}
		return fmt.Errorf("update coupon %d: %w", c.ID, err)
	}
	return nil
}

// Delete removes a coupon. Returns service.ErrCouponNotFound when nothing was deleted.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// IncrementUsage atomically adds one redemption while the usage limit allows it.
// Returns service.ErrUsageLimitExceeded when the cap is already reached.
func (r *CouponRepository) IncrementUsage(ctx context.Context, q database.TxQuerier, id int64) error {
	tag, err := database.Or(q, r.pool).Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW()
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`, id)
	if err != nil {
		return fmt.Errorf("increment coupon usage %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrUsageLimitExceeded
	}
	return nil
}
