package repository

import (
	"context"
	"testing"

	"github.com/aegisguard/aegis/internal/testutil"
)

// newTestRepository connects to the test database, serializes against
// other DB tests, and hands back a clean schema. Skips when
// DATABASE_URL is unset.
func newTestRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("release db lock: %v", err)
		}
	})

	db, err := testutil.OpenDB(dbURL)
	if err != nil {
		t.Fatalf("open schema connection: %v", err)
	}
	defer db.Close()

	if err := testutil.ResetSubscriptionsSchema(ctx, db); err != nil {
		t.Fatalf("reset subscriptions schema: %v", err)
	}
	if err := testutil.ResetThreatsSchema(ctx, db); err != nil {
		t.Fatalf("reset threats schema: %v", err)
	}
	if err := testutil.ResetProtectionSchema(ctx, db); err != nil {
		t.Fatalf("reset protection schema: %v", err)
	}

	return repo
}
