package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func csrfHandler(tokens *token.Service, ring audit.Sink) http.Handler {
	return CSRF(CSRFConfig{
		Logger: discardLogger(),
		Tokens: tokens,
		Audit:  ring,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func withAuth(req *http.Request, sessionID string) *http.Request {
	ctx := auth.ContextWithAuth(req.Context(), &model.AuthContext{
		SessionID: sessionID,
		UserID:    "user-1",
	})
	return req.WithContext(ctx)
}

func TestCSRFSafeMethodsPass(t *testing.T) {
	tokens := token.New(testSecret)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/v1/threats", nil)
			rec := httptest.NewRecorder()
			csrfHandler(tokens, nil).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200 for %s without token, got %d", method, rec.Code)
			}
		})
	}
}

func TestCSRFValidToken(t *testing.T) {
	tokens := token.New(testSecret)

	req := withAuth(httptest.NewRequest(http.MethodPost, "/api/v1/threats", nil), "sess-1")
	req.Header.Set(CSRFHeaderName, tokens.Issue("sess-1"))
	rec := httptest.NewRecorder()
	csrfHandler(tokens, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCSRFMissingAuthContext(t *testing.T) {
	tokens := token.New(testSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/threats", nil)
	rec := httptest.NewRecorder()
	csrfHandler(tokens, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth context, got %d", rec.Code)
	}
}

func TestCSRFRejections(t *testing.T) {
	tokens := token.New(testSecret)
	otherSecret := token.New("ffffffffffffffffffffffffffffffff")
	expired := token.NewWithClock(testSecret, func() time.Time {
		return time.Now().Add(-token.MaxAge - time.Minute)
	})

	tests := []struct {
		name      string
		token     string
		wantEvent string
	}{
		{
			name:      "missing token",
			token:     "",
			wantEvent: audit.EventTokenMissing,
		},
		{
			name:      "malformed token",
			token:     "not-a-token",
			wantEvent: audit.EventTokenInvalid,
		},
		{
			name:      "token for another session",
			token:     tokens.Issue("sess-other"),
			wantEvent: audit.EventTokenInvalid,
		},
		{
			name:      "token signed with another secret",
			token:     otherSecret.Issue("sess-1"),
			wantEvent: audit.EventTokenInvalid,
		},
		{
			name:      "expired token",
			token:     expired.Issue("sess-1"),
			wantEvent: audit.EventTokenInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ring := audit.NewRingSink(8)

			req := withAuth(httptest.NewRequest(http.MethodPatch, "/api/v1/subscription", nil), "sess-1")
			if tc.token != "" {
				req.Header.Set(CSRFHeaderName, tc.token)
			}
			rec := httptest.NewRecorder()
			csrfHandler(tokens, ring).ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "CSRF_TOKEN_INVALID") {
				t.Errorf("unexpected body: %s", rec.Body.String())
			}

			events := ring.Events()
			if len(events) != 1 {
				t.Fatalf("expected 1 audit event, got %d", len(events))
			}
			if events[0].Type != tc.wantEvent {
				t.Errorf("expected %s event, got %s", tc.wantEvent, events[0].Type)
			}
		})
	}
}

func TestCSRFValidationMetrics(t *testing.T) {
	tokens := token.New(testSecret)
	recorder := metrics.NewInMemory()

	h := CSRF(CSRFConfig{
		Logger:  discardLogger(),
		Tokens:  tokens,
		Metrics: recorder,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(tok string) {
		req := withAuth(httptest.NewRequest(http.MethodPost, "/api/v1/threats", nil), "sess-1")
		if tok != "" {
			req.Header.Set(CSRFHeaderName, tok)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	send(tokens.Issue("sess-1")) // ok
	send("")                     // missing
	send("garbage")              // invalid

	snap := recorder.Snapshot()
	if snap.TokenValidationsOK != 1 {
		t.Errorf("ok validations = %d, want 1", snap.TokenValidationsOK)
	}
	if snap.TokenValidationsFailed != 2 {
		t.Errorf("failed validations = %d, want 2", snap.TokenValidationsFailed)
	}
}

// Missing and invalid tokens must produce byte-identical responses.
func TestCSRFUniformErrorBody(t *testing.T) {
	tokens := token.New(testSecret)

	bodies := make(map[string]bool)
	for _, tok := range []string{"", "garbage", tokens.Issue("sess-other")} {
		req := withAuth(httptest.NewRequest(http.MethodDelete, "/api/v1/subscription", nil), "sess-1")
		if tok != "" {
			req.Header.Set(CSRFHeaderName, tok)
		}
		rec := httptest.NewRecorder()
		csrfHandler(tokens, nil).ServeHTTP(rec, req)
		bodies[rec.Body.String()] = true
	}

	if len(bodies) != 1 {
		t.Errorf("expected identical bodies for all token failures, got %d variants", len(bodies))
	}
}
