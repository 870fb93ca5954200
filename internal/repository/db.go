package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

// DB wraps the connection pool and is the unit-of-work boundary: every
// multi-write operation runs inside a transaction started here.
type DB struct {
	pool *sql.DB
}

func NewDB(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", err)
	}
	return tx, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
