package token

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	svc := New("test-secret")

	sessions := []string{"sess_abc123", "s", "sess-with-:-colon"}
	for _, sid := range sessions {
		tok := svc.Issue(sid)
		if !svc.Validate(tok, sid) {
			t.Errorf("freshly issued token for %q did not validate", sid)
		}
	}
}

func TestIssueFormat(t *testing.T) {
	svc := New("test-secret")

	tok := svc.Issue("sess_abc")
	parts := strings.Split(tok, ":")
	if len(parts) != 2 {
		t.Fatalf("token has %d parts, want 2", len(parts))
	}

	// Signature is hex-encoded SHA256 (64 chars).
	if len(parts[1]) != 64 {
		t.Errorf("signature length = %d, want 64", len(parts[1]))
	}
}

func TestValidateWrongSession(t *testing.T) {
	svc := New("test-secret")

	tok := svc.Issue("session-a")
	if svc.Validate(tok, "session-b") {
		t.Error("token issued for session-a validated for session-b")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	tok := New("secret-one").Issue("sess_abc")
	if New("secret-two").Validate(tok, "sess_abc") {
		t.Error("token validated against a different signing secret")
	}
}

func TestValidateExpired(t *testing.T) {
	now := time.Now()

	// Issue with a clock one hour and one millisecond in the past.
	issued := NewWithClock("test-secret", func() time.Time {
		return now.Add(-MaxAge - time.Millisecond)
	})
	tok := issued.Issue("sess_abc")

	current := NewWithClock("test-secret", func() time.Time { return now })
	if current.Validate(tok, "sess_abc") {
		t.Error("expired token validated")
	}
}

func TestValidateJustInsideExpiry(t *testing.T) {
	now := time.Now()

	issued := NewWithClock("test-secret", func() time.Time {
		return now.Add(-MaxAge + time.Second)
	})
	tok := issued.Issue("sess_abc")

	current := NewWithClock("test-secret", func() time.Time { return now })
	if !current.Validate(tok, "sess_abc") {
		t.Error("token just inside the expiry window did not validate")
	}
}

func TestValidateFutureTimestamp(t *testing.T) {
	now := time.Now()

	issued := NewWithClock("test-secret", func() time.Time {
		return now.Add(time.Minute)
	})
	tok := issued.Issue("sess_abc")

	current := NewWithClock("test-secret", func() time.Time { return now })
	if current.Validate(tok, "sess_abc") {
		t.Error("forward-dated token validated")
	}
}

func TestValidateMalformed(t *testing.T) {
	svc := New("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no colon", "1736600000000abcdef"},
		{"too many parts", "1736600000000:deadbeef:extra"},
		{"non-numeric timestamp", "notanumber:deadbeef"},
		{"empty signature", "1736600000000:"},
		{"whitespace", "   "},
		{"signature only", ":deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if svc.Validate(tt.token, "sess_abc") {
				t.Errorf("malformed token %q validated", tt.token)
			}
		})
	}
}

func TestValidateEmptySession(t *testing.T) {
	svc := New("test-secret")

	tok := svc.Issue("sess_abc")
	if svc.Validate(tok, "") {
		t.Error("token validated against empty session ID")
	}
}

func TestValidateTamperedTimestamp(t *testing.T) {
	now := time.Now()
	svc := NewWithClock("test-secret", func() time.Time { return now })

	tok := svc.Issue("sess_abc")
	parts := strings.SplitN(tok, ":", 2)

	// Re-date the token without re-signing.
	tampered := strings.Join([]string{
		strings.Repeat("9", len(parts[0])),
		parts[1],
	}, ":")
	if svc.Validate(tampered, "sess_abc") {
		t.Error("token with tampered timestamp validated")
	}
}
