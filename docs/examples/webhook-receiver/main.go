// Aegis Webhook Receiver Example
//
// This is a minimal example of how to receive and verify Aegis threat
// alert webhooks.
//
// Usage:
//   export AEGIS_WEBHOOK_SECRET="whsec_your_secret_here"
//   go run main.go
//
// Then register a webhook endpoint pointing at https://your-server/webhook
// via POST /api/v1/webhooks.

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ThreatEvent represents the webhook payload for threat alerts
type ThreatEvent struct {
	EventType string     `json:"event_type"`
	EventID   string     `json:"event_id"`
	Timestamp time.Time  `json:"timestamp"`
	Data      ThreatData `json:"data"`
}

type ThreatData struct {
	ThreatID string `json:"threat_id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

func main() {
	secret := os.Getenv("AEGIS_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("AEGIS_WEBHOOK_SECRET environment variable is required")
	}

	http.HandleFunc("/webhook", webhookHandler(secret))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting webhook receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/webhook")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func webhookHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Read body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Aegis-Signature")
		timestamp := r.Header.Get("X-Aegis-Timestamp")
		if signature == "" || timestamp == "" {
			log.Println("Missing X-Aegis-Signature or X-Aegis-Timestamp header")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		// Verify signature
		if !verifySignature(signature, timestamp, string(body), secret) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// Parse event
		var event ThreatEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Process the event. The delivery ID header is stable across
		// retries, so deduplicate on it if you store events.
		log.Printf("✓ Received %s event %s", event.EventType, event.EventID)
		log.Printf("  Delivery: %s", r.Header.Get("X-Aegis-Delivery-Id"))
		log.Printf("  Threat:   %s", event.Data.ThreatID)
		log.Printf("  Category: %s", event.Data.Category)
		log.Printf("  Severity: %s", event.Data.Severity)

		// Respond with 200 OK promptly; slow handlers get retried
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature verifies the HMAC-SHA256 signature from Aegis
//
// X-Aegis-Signature: hex HMAC-SHA256 of "{timestamp}.{body}"
// X-Aegis-Timestamp: Unix seconds when the request was signed
func verifySignature(signature, timestamp, body, secret string) bool {
	// Check timestamp (±5 min tolerance)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	// Compute expected signature
	signedPayload := fmt.Sprintf("%s.%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
