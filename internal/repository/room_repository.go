package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/pkg/database"
)

const roomColumns = `id, name, type, price, capacity, available, created_at`

// RoomRepository provides data access for rooms using pgx.
type RoomRepository struct {
	pool PoolInterface
}

// NewRoomRepository creates a new RoomRepository with the given pool.
func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// NewRoomRepositoryWithPool creates a RoomRepository with a custom pool interface.
func NewRoomRepositoryWithPool(pool PoolInterface) *RoomRepository {
	return &RoomRepository{pool: pool}
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Type, &rm.Price, &rm.Capacity, &rm.Available, &rm.CreatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// Insert stores a new room. The caller assigns the id.
func (r *RoomRepository) Insert(ctx context.Context, rm *model.Room) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO rooms (id, name, type, price, capacity, available)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		rm.ID, rm.Name, rm.Type, rm.Price, rm.Capacity, rm.Available,
	).Scan(&rm.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetByID retrieves a room. Returns nil, nil if the room is not found.
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	rm, err := scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	return rm, nil
}

// GetForUpdate locks a room row for the rest of the transaction.
// Returns service.ErrRoomNotFound if the room doesn't exist.
func (r *RoomRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Room, error) {
	rm, err := scanRoom(tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room for update %s: %w", id, err)
	}
	return rm, nil
}

// List returns rooms, optionally restricted to one type.
func (r *RoomRepository) List(ctx context.Context, roomType string) ([]model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name`
	var args []any
	if roomType != "" {
		query = `SELECT ` + roomColumns + ` FROM rooms WHERE type = $1 ORDER BY name`
		args = append(args, roomType)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// MarkUnavailable flips a room from available to unavailable.
// Returns service.ErrRoomNotAvailable when the room was already taken.
func (r *RoomRepository) MarkUnavailable(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	tag, err := database.Or(q, r.pool).Exec(ctx,
		`UPDATE rooms SET available = FALSE WHERE id = $1 AND available`, id)
	if err != nil {
		return fmt.Errorf("mark room %s unavailable: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrRoomNotAvailable
	}
	return nil
}

// Release makes a room bookable again.
func (r *RoomRepository) Release(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	_, err := database.Or(q, r.pool).Exec(ctx, `UPDATE rooms SET available = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("release room %s: %w", id, err)
	}
	return nil
}
