// Package repository provides the database access layer.
//
// Every query over owner-scoped records (subscriptions, threats,
// protection toggles) carries the owner ID inside the SQL predicate
// itself. Callers cannot fetch a row first and check ownership after;
// that access pattern is structurally unavailable, which closes the
// IDOR class of defects even when a handler forgets the check.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for repository operations.
var (
	// ErrNotFound is returned when no row matches the (id, owner)
	// predicate. A row that exists but belongs to another owner is
	// deliberately indistinguishable from a missing row.
	ErrNotFound = errors.New("record not found")

	// ErrSubscriptionExists is returned when the per-owner uniqueness
	// constraint rejects a second subscription insert.
	ErrSubscriptionExists = errors.New("subscription already exists")

	// ErrInvalidCursor is returned for undecodable pagination cursors.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "unique"))
}
