package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aegisguard/aegis/internal/testutil"
)

func newTestCache(t *testing.T, ctx context.Context) *Cache {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, ctx)

	session := testutil.NewTestSession(t, "user-1")
	if err := c.SetSession(ctx, session); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}

	got, err := c.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != session.UserID || got.Email != session.Email {
		t.Errorf("GetSession() = %+v, want user %s email %s", got, session.UserID, session.Email)
	}

	if err := c.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if _, err := c.GetSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrSessionNotFound", err)
	}

	// Deleting a session that is already gone is not an error.
	if err := c.DeleteSession(ctx, session.ID); err != nil {
		t.Errorf("DeleteSession() repeat error = %v", err)
	}
}

func TestGetSessionExpiredHash(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, ctx)

	// A hash whose expires_at has passed but whose Redis TTL has not
	// fired yet must still read as missing.
	sessionID := testutil.UniqueID("sess")
	key := sessionPrefix + sessionID
	past := time.Now().Add(-time.Minute).Unix()
	if err := c.client.HSet(ctx, key, map[string]any{
		"user_id":    "user-1",
		"email":      "user-1@example.com",
		"expires_at": strconv.FormatInt(past, 10),
	}).Err(); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	t.Cleanup(func() { c.client.Del(context.Background(), key) })

	if _, err := c.GetSession(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}
