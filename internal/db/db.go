// Package db provides PostgreSQL access for tenant state and generated
// site sections.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// WithTenantLock runs fn while holding a tenant-scoped advisory lock held in
// a dedicated transaction. The transaction exists only as a lease: fn does
// its writes through the pool so that concurrent readers see per-section
// progress as it is persisted, not after a terminal commit.
//
// Returns acquired=false without running fn when another pipeline already
// holds the lock for this tenant.
func (db *DB) WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context) error) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin lock transaction: %w", err)
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck // rollback after commit is a no-op

	var acquired bool
	err = tx.QueryRow(ctx,
		`SELECT pg_try_advisory_xact_lock(hashtextextended($1::text, 0))`,
		tenantID.String(),
	).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire tenant lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	fnErr := fn(ctx)

	if err := tx.Commit(ctx); err != nil {
		if fnErr != nil {
			return true, fnErr
		}
		return true, fmt.Errorf("failed to release tenant lock: %w", err)
	}
	return true, fnErr
}
