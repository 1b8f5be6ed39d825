package webhook

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		timestamp   int64
		payloadJSON []byte
	}{
		{
			name:        "threat reported payload",
			secret:      "whsec_test123",
			timestamp:   1756600000,
			payloadJSON: []byte(`{"event_type":"threat.reported","event_id":"1756600000-0"}`),
		},
		{
			name:        "empty payload",
			secret:      "secret",
			timestamp:   1000000000,
			payloadJSON: []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := GenerateSignature(tt.secret, tt.timestamp, tt.payloadJSON)

			// Hex-encoded SHA256 is 64 chars
			if len(sig) != 64 {
				t.Errorf("signature length = %d, want 64", len(sig))
			}

			sig2 := GenerateSignature(tt.secret, tt.timestamp, tt.payloadJSON)
			if sig != sig2 {
				t.Error("signature is not deterministic")
			}

			sig3 := GenerateSignature(tt.secret, tt.timestamp+1, tt.payloadJSON)
			if sig == sig3 {
				t.Error("different timestamp should produce different signature")
			}

			sig4 := GenerateSignature(tt.secret+"x", tt.timestamp, tt.payloadJSON)
			if sig == sig4 {
				t.Error("different secret should produce different signature")
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	secret := "test_secret"
	timestamp := time.Now().Unix()
	payload := []byte(`{"event_type":"threat.resolved","data":{"threat_id":"t1"}}`)

	validSig := GenerateSignature(secret, timestamp, payload)

	tests := []struct {
		name      string
		secret    string
		signature string
		timestamp int64
		payload   []byte
		window    time.Duration
		wantErr   error
	}{
		{
			name:      "valid signature",
			secret:    secret,
			signature: validSig,
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   nil,
		},
		{
			name:      "wrong secret",
			secret:    "other_secret",
			signature: validSig,
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "tampered payload",
			secret:    secret,
			signature: validSig,
			timestamp: timestamp,
			payload:   []byte(`{"event_type":"threat.resolved","data":{"threat_id":"t2"}}`),
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "timestamp too old",
			secret:    secret,
			signature: GenerateSignature(secret, timestamp-600, payload),
			timestamp: timestamp - 600,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrReplayWindowExceeded,
		},
		{
			name:      "timestamp in future beyond window",
			secret:    secret,
			signature: GenerateSignature(secret, timestamp+600, payload),
			timestamp: timestamp + 600,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrReplayWindowExceeded,
		},
		{
			name:      "empty signature",
			secret:    secret,
			signature: "",
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignature(tt.secret, tt.signature, tt.timestamp, tt.payload, tt.window)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSignature() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}

	if len(secret) != len(SecretPrefix)+64 {
		t.Errorf("secret length = %d, want %d", len(secret), len(SecretPrefix)+64)
	}
	if secret[:len(SecretPrefix)] != SecretPrefix {
		t.Errorf("secret missing %q prefix: %s", SecretPrefix, secret[:8])
	}

	other, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if secret == other {
		t.Error("two generated secrets should differ")
	}
}
