package webhook

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretPrefix marks Aegis-issued webhook secrets for easy recognition.
const SecretPrefix = "whsec_"

// GenerateSecret creates a cryptographically secure signing secret.
// The secret is shown to the caller exactly once at endpoint creation.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return SecretPrefix + hex.EncodeToString(b), nil
}
