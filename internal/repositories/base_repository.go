package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"placehub/internal/database"
)

// pqForeignKeyViolation is the Postgres code for a missing referenced row.
const pqForeignKeyViolation = "23503"

// BaseRepository provides common database operations
type BaseRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *database.Manager, logger *zap.Logger) *BaseRepository {
	return &BaseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, query, args...)
}

func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, query, args...)
}

func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

// WithTransaction executes a function within a database transaction
func (r *BaseRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return r.db.ExecuteTransaction(ctx, fn)
}

// countQuery runs a query returning a single integer.
func (r *BaseRepository) countQuery(ctx context.Context, op string, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("Count query failed", zap.String("op", op), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// IsNotFound checks if error is a not found error
func (r *BaseRepository) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// pqCode returns the Postgres error code, or "" when err is not a pq error.
func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func (r *BaseRepository) GetDB() *database.Manager {
	return r.db
}

func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}
