// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/aegisguard/aegis/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 874212

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// AcquireDBLockConn is AcquireDBLock for a database/sql handle. It
// pins a single connection so lock and unlock hit the same session.
func AcquireDBLockConn(ctx context.Context, db *sql.DB) (func() error, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// OpenDB opens a plain database/sql connection for schema operations.
// Caller is responsible for closing it.
func OpenDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// ResetSubscriptionsSchema drops and recreates the subscriptions
// schema for tests.
func ResetSubscriptionsSchema(ctx context.Context, db *sql.DB) error {
	return resetSchema(ctx, db, "000001_subscriptions")
}

// ResetThreatsSchema drops and recreates the threat_logs schema for tests.
func ResetThreatsSchema(ctx context.Context, db *sql.DB) error {
	return resetSchema(ctx, db, "000002_threat_logs")
}

// ResetProtectionSchema drops and recreates the protection_status
// schema for tests.
func ResetProtectionSchema(ctx context.Context, db *sql.DB) error {
	return resetSchema(ctx, db, "000003_protection_status")
}

// ResetWebhooksSchema drops and recreates the webhook tables for tests.
func ResetWebhooksSchema(ctx context.Context, db *sql.DB) error {
	return resetSchema(ctx, db, "000004_webhooks")
}

// resetSchema applies a migration's down then up file.
func resetSchema(ctx context.Context, db *sql.DB, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration %s: %w", name, err)
	}

	upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration %s: %w", name, err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestSubscription creates a test subscription with sensible defaults.
func NewTestSubscription(t testing.TB, ownerID string) *model.Subscription {
	t.Helper()
	now := time.Now().UTC()
	return &model.Subscription{
		ID:           UniqueID("sub"),
		OwnerID:      ownerID,
		PlanID:       model.PlanPro,
		BillingCycle: model.BillingMonthly,
		Status:       model.SubscriptionActive,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestThreat creates a test threat with sensible defaults.
func NewTestThreat(t testing.TB, ownerID string) *model.Threat {
	t.Helper()
	now := time.Now().UTC()
	return &model.Threat{
		ID:          UniqueID("threat"),
		OwnerID:     ownerID,
		Source:      "monitoring",
		Category:    model.CategoryDeepfakeVideo,
		Severity:    model.SeverityMedium,
		Status:      model.ThreatOpen,
		Description: "Suspicious video detected",
		DetectedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestSession creates a test dashboard session.
func NewTestSession(t testing.TB, userID string) *model.Session {
	t.Helper()
	return &model.Session{
		ID:        UniqueID("sess"),
		UserID:    userID,
		Email:     userID + "@example.com",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
