package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/cache"
	"github.com/aegisguard/aegis/internal/model"
)

// SessionCookieName is the cookie carrying the opaque session ID.
// The identity-provider callback sets it; this service only reads it.
const SessionCookieName = "aegis_session"

// SessionResolver looks up an active session by its opaque ID.
// The Redis-backed cache implements this; tests use fakes.
type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Sessions SessionResolver
	Audit    audit.Sink
}

// Session returns a middleware that authenticates dashboard requests.
// It extracts the session cookie, resolves the session against the
// store, and injects the auth context into the request. The resolved
// identity is trusted downstream without re-validation.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := extractSessionID(r)
			if sessionID == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_session"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recordAuthFailure(cfg, r, "missing session cookie")
				writeAuthError(w)
				return
			}

			session, err := cfg.Sessions.GetSession(r.Context(), sessionID)
			if err != nil {
				reason := "invalid_session"
				if !errors.Is(err, cache.ErrSessionNotFound) {
					reason = "session_lookup_failed"
					cfg.Logger.Error("session store error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recordAuthFailure(cfg, r, reason)
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				SessionID: session.ID,
				UserID:    session.UserID,
				Email:     session.Email,
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractSessionID reads the session ID from the session cookie.
func extractSessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// recordAuthFailure emits an unauthenticated audit event.
func recordAuthFailure(cfg SessionConfig, r *http.Request, detail string) {
	if cfg.Audit == nil {
		return
	}
	cfg.Audit.Record(r.Context(), audit.Event{
		Time:      time.Now().UTC(),
		Type:      audit.EventUnauthenticated,
		RequestID: GetRequestID(r.Context()),
		Detail:    detail,
	})
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`))
}
