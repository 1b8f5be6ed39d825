// Package token issues and validates anti-forgery tokens.
//
// A token binds a mutating request to the session that fetched it.
// Tokens are stateless: validity is fully recomputable from the
// signing secret, the session ID, and the embedded timestamp, so
// nothing is stored server-side and nothing needs cleanup. The
// trade-off is that a leaked token stays valid until natural expiry;
// there is no per-token revocation list.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxAge is how long an issued token remains valid.
const MaxAge = time.Hour

// Service signs and verifies anti-forgery tokens.
// The signing secret is process-wide configuration, loaded once at
// startup and never mutated.
type Service struct {
	secret []byte
	now    func() time.Time
}

// New creates a token Service with the given signing secret.
func New(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// NewWithClock creates a Service with an injected clock for tests.
func NewWithClock(secret string, now func() time.Time) *Service {
	return &Service{
		secret: []byte(secret),
		now:    now,
	}
}

// Issue returns a new token for the given session.
// Format: "{issuedAtMillis}:{hexHMAC}" where the signature covers
// "{sessionID}:{issuedAtMillis}".
func (s *Service) Issue(sessionID string) string {
	issuedAt := s.now().UnixMilli()
	return fmt.Sprintf("%d:%s", issuedAt, s.sign(sessionID, issuedAt))
}

// Validate reports whether the token was issued for the given session
// within the last hour. It fails closed: any missing, malformed,
// expired, or mis-signed token yields false, never an error.
func (s *Service) Validate(token, sessionID string) bool {
	if token == "" || sessionID == "" {
		return false
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return false
	}

	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}

	age := s.now().UnixMilli() - issuedAt
	if age < 0 || age > MaxAge.Milliseconds() {
		return false
	}

	expected := s.sign(sessionID, issuedAt)

	// Constant-time comparison so a probing client cannot learn
	// signature bytes from response timing.
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}

// sign computes the hex-encoded HMAC-SHA256 over the canonical
// "{sessionID}:{issuedAtMillis}" string.
func (s *Service) sign(sessionID string, issuedAt int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", sessionID, issuedAt)
	return hex.EncodeToString(mac.Sum(nil))
}
