package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/token"
)

// CSRFHeaderName is the request header carrying the anti-forgery token.
const CSRFHeaderName = "X-CSRF-Token"

// CSRFConfig holds configuration for the CSRF middleware.
type CSRFConfig struct {
	Logger  *slog.Logger
	Tokens  *token.Service
	Audit   audit.Sink
	Metrics metrics.Recorder
}

// CSRF returns a middleware that enforces anti-forgery tokens on
// state-changing methods. Safe methods (GET, HEAD, OPTIONS) pass
// through untouched. Must be applied after the Session middleware:
// the token is validated against the session that fetched it.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				// Session middleware did not run; fail closed.
				writeAuthError(w)
				return
			}

			supplied := r.Header.Get(CSRFHeaderName)
			if supplied == "" {
				cfg.Logger.Warn("csrf validation failed",
					slog.String("reason", "missing_token"),
					slog.String("user_id", authCtx.UserID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncTokenValidation("missing")
				recordCSRFFailure(cfg, r, authCtx.UserID, authCtx.SessionID, audit.EventTokenMissing)
				writeCSRFError(w)
				return
			}

			if !cfg.Tokens.Validate(supplied, authCtx.SessionID) {
				// Malformed, expired, and mis-signed tokens are all
				// rejected identically; the distinction would only
				// help a forger.
				cfg.Logger.Warn("csrf validation failed",
					slog.String("reason", "invalid_token"),
					slog.String("user_id", authCtx.UserID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncTokenValidation("invalid")
				recordCSRFFailure(cfg, r, authCtx.UserID, authCtx.SessionID, audit.EventTokenInvalid)
				writeCSRFError(w)
				return
			}

			recorder.IncTokenValidation("ok")
			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod reports whether the HTTP method is read-only.
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// recordCSRFFailure emits a token-rejection audit event.
func recordCSRFFailure(cfg CSRFConfig, r *http.Request, userID, sessionID, eventType string) {
	if cfg.Audit == nil {
		return
	}
	cfg.Audit.Record(r.Context(), audit.Event{
		Time:      time.Now().UTC(),
		Type:      eventType,
		UserID:    userID,
		SessionID: sessionID,
		RequestID: GetRequestID(r.Context()),
		Detail:    r.Method + " " + r.URL.Path,
	})
}

// writeCSRFError writes a 403 Forbidden response.
// The same body is used for missing and invalid tokens.
func writeCSRFError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":{"code":"CSRF_TOKEN_INVALID","message":"Missing or invalid anti-forgery token"}}`))
}
