package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aegisguard/aegis/internal/model"
)

const (
	// sessionPrefix is the Redis key prefix for browser sessions.
	// Sessions are written by the identity-provider callback; this
	// service only reads and deletes them.
	sessionPrefix = "session:"
)

// ErrSessionNotFound is returned when no session exists for the ID.
var ErrSessionNotFound = errors.New("session not found")

// GetSession looks up a session by its opaque identifier.
// Expired sessions are treated as missing.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := c.client.HGetAll(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	session := &model.Session{
		ID:     sessionID,
		UserID: data["user_id"],
		Email:  data["email"],
	}

	if raw := data["expires_at"]; raw != "" {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			session.ExpiresAt = time.Unix(ts, 0)
		}
	}

	if session.UserID == "" {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired(time.Now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// SetSession stores a session hash with a TTL matching its expiry.
// Used by the local seed tool and tests; production sessions are
// written by the identity-provider callback service.
func (c *Cache) SetSession(ctx context.Context, session *model.Session) error {
	key := sessionPrefix + session.ID

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    session.UserID,
		"email":      session.Email,
		"expires_at": strconv.FormatInt(session.ExpiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// DeleteSession removes a session, ending it immediately.
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	err := c.client.Del(ctx, sessionPrefix+sessionID).Err()
	if err != nil && err != redis.Nil {
		return err
	}
	return nil
}
