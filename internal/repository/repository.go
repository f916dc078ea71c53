package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PoolInterface defines the database operations needed by repositories.
// It is satisfied by *pgxpool.Pool and pgx.Tx, and by mocks in tests.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// rowScanner is the common subset of pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const defaultPageSize = 20

// pagination normalises a 1-based page and a page size into LIMIT/OFFSET.
func pagination(page, limit int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
