// Package model defines domain entities for the application.
package model

import "time"

// Session represents an authenticated browser session.
// Sessions are created by the identity-provider callback and stored
// in Redis; this service only reads them.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuthContext holds authenticated request context.
// This is injected into the request context by the session middleware.
type AuthContext struct {
	SessionID string
	UserID    string
	Email     string
}
