package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Session cookies and anti-forgery tokens are credentials; neither may
// ever reach the request log.
func TestLoggingCredentialRedaction(t *testing.T) {
	t.Parallel()

	sensitiveValues := []string{
		"sess-01HV3K4J5M6N7P8Q9R0S1T2U3V",
		"1712000000000:4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/threats", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sensitiveValues[0]})
	req.Header.Set(CSRFHeaderName, sensitiveValues[1])
	req.Header.Set("User-Agent", "TestAgent/1.0")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	logOutput := buf.String()
	for _, value := range sensitiveValues {
		if strings.Contains(logOutput, value) {
			t.Errorf("Log output contains credential %q", value)
		}
	}
}

// TestLoggingBasicFields verifies that expected non-sensitive fields are logged.
func TestLoggingBasicFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/v1/subscription", nil)
	req.Header.Set("User-Agent", "TestBrowser/2.0")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	logOutput := buf.String()

	expectedFields := []string{
		`"method":"POST"`,
		`"path":"/api/v1/subscription"`,
		`"status_code":201`,
		`"user_agent":"TestBrowser/2.0"`,
	}

	for _, field := range expectedFields {
		if !strings.Contains(logOutput, field) {
			t.Errorf("Expected log field %s not found in output", field)
		}
	}
}

// TestLoggingStatusLevel verifies log levels track the response status.
func TestLoggingStatusLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{"success", http.StatusOK, "INFO"},
		{"created", http.StatusCreated, "INFO"},
		{"bad request", http.StatusBadRequest, "WARN"},
		{"unauthorized", http.StatusUnauthorized, "WARN"},
		{"not found", http.StatusNotFound, "WARN"},
		{"internal error", http.StatusInternalServerError, "ERROR"},
		{"bad gateway", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if !strings.Contains(buf.String(), `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("Expected log level %s for status %d, got output: %s", tt.wantLevel, tt.statusCode, buf.String())
			}
		})
	}
}

// TestResponseWriterCapturesStatus verifies the wrapper captures status codes.
func TestResponseWriterCapturesStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"ok", http.StatusOK},
		{"created", http.StatusCreated},
		{"no content", http.StatusNoContent},
		{"bad request", http.StatusBadRequest},
		{"internal error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			wrapped := wrapResponseWriter(rec)

			wrapped.WriteHeader(tt.statusCode)

			if wrapped.status != tt.statusCode {
				t.Errorf("status = %d, want %d", wrapped.status, tt.statusCode)
			}
		})
	}
}

// Implicit WriteHeader via Write defaults to 200.
func TestResponseWriterImplicitOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	if _, err := wrapped.Write([]byte("body")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if wrapped.status != http.StatusOK {
		t.Errorf("status = %d, want %d", wrapped.status, http.StatusOK)
	}
}
