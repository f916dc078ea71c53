package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const propertyColumns = `id, name, type_id, location, description, full_price, deposit_type, deposit_value,
	calculated_deposit, capacity, is_available, is_active, rating, reviews_count, created_by,
	check_in_time, check_out_time, created_at, updated_at`

// PropertyRepository provides data access for properties using pgx.
type PropertyRepository struct {
	pool PoolInterface
}

// NewPropertyRepository creates a new PropertyRepository with the given pool.
func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

// NewPropertyRepositoryWithPool creates a PropertyRepository with a custom pool interface.
func NewPropertyRepositoryWithPool(pool PoolInterface) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

func scanProperty(row rowScanner) (*model.Property, error) {
	var p model.Property
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.TypeID,
		&p.Location,
		&p.Description,
		&p.FullPrice,
		&p.DepositType,
		&p.DepositValue,
		&p.CalculatedDeposit,
		&p.Capacity,
		&p.IsAvailable,
		&p.IsActive,
		&p.Rating,
		&p.ReviewsCount,
		&p.CreatedBy,
		&p.CheckInTime,
		&p.CheckOutTime,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert stores a new property. The caller computes calculated_deposit.
func (r *PropertyRepository) Insert(ctx context.Context, p *model.Property) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO properties (name, type_id, location, description, full_price, deposit_type, deposit_value,
		     calculated_deposit, capacity, is_available, is_active, created_by, check_in_time, check_out_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, rating, reviews_count, created_at, updated_at`,
		p.Name, p.TypeID, p.Location, p.Description, p.FullPrice, p.DepositType, p.DepositValue,
		p.CalculatedDeposit, p.Capacity, p.IsAvailable, p.IsActive, p.CreatedBy, p.CheckInTime, p.CheckOutTime,
	).Scan(&p.ID, &p.Rating, &p.ReviewsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a property, including calculated_deposit.
// Rating aggregates are owned by UpdateRating and are left untouched.
func (r *PropertyRepository) Update(ctx context.Context, p *model.Property) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE properties
		 SET name = $2, type_id = $3, location = $4, description = $5, full_price = $6, deposit_type = $7,
		     deposit_value = $8, calculated_deposit = $9, capacity = $10, is_available = $11,
		     check_in_time = $12, check_out_time = $13, updated_at = NOW()
		 WHERE id = $1 AND is_active
		 RETURNING rating, reviews_count, created_by, created_at, updated_at`,
		p.ID, p.Name, p.TypeID, p.Location, p.Description, p.FullPrice, p.DepositType,
		p.DepositValue, p.CalculatedDeposit, p.Capacity, p.IsAvailable, p.CheckInTime, p.CheckOutTime,
	).Scan(&p.Rating, &p.ReviewsCount, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrPropertyNotFound
		}
		return fmt.Errorf("update property %d: %w", p.ID, err)
	}
	p.IsActive = true
	return nil
}

// GetByID retrieves a property, active or not.
// Returns nil, nil if the property is not found.
func (r *PropertyRepository) GetByID(ctx context.Context, q database.TxQuerier, id int64) (*model.Property, error) {
	row := database.Or(q, r.pool).QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get property %d: %w", id, err)
	}
	return p, nil
}

// GetBookableForUpdate locks an active, available property row for the rest of the transaction.
// Returns service.ErrPropertyUnavailable if no such property exists.
func (r *PropertyRepository) GetBookableForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Property, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1 AND is_active AND is_available FOR UPDATE`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrPropertyUnavailable
		}
		return nil, fmt.Errorf("get property for update %d: %w", id, err)
	}
	return p, nil
}

// List returns active properties matching filter, best rated first.
func (r *PropertyRepository) List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	var (
		where = []string{"is_active"}
		args  []any
	)
	if filter.TypeID != nil {
		args = append(args, *filter.TypeID)
		where = append(where, fmt.Sprintf("type_id = $%d", len(args)))
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		where = append(where, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	limit, offset := pagination(filter.Page, filter.Limit)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM properties WHERE %s ORDER BY rating DESC, id DESC LIMIT $%d OFFSET $%d`,
		propertyColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	properties := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return properties, nil
}

// Deactivate soft-deletes a property.
// Returns service.ErrPropertyNotFound if no active property matched.
func (r *PropertyRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("deactivate property %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPropertyNotFound
	}
	return nil
}

// UpdateRating stores a recomputed rating aggregate.
func (r *PropertyRepository) UpdateRating(ctx context.Context, q database.TxQuerier, id int64, rating decimal.Decimal, count int) error {
	_, err := database.Or(q, r.pool).Exec(ctx,
		`UPDATE properties SET rating = $2, reviews_count = $3, updated_at = NOW() WHERE id = $1`,
		id, rating, count)
	if err != nil {
		return fmt.Errorf("update rating of property %d: %w", id, err)
	}
	return nil
}

// OwnerOf returns the creator of a property, or uuid.Nil when it does not exist.
func (r *PropertyRepository) OwnerOf(ctx context.Context, id int64) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT created_by FROM properties WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("get owner of property %d: %w", id, err)
	}
	return owner, nil
}
