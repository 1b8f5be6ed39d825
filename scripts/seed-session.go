// Command seed-session writes a development session into Redis so the
// API can be exercised without the external identity provider.
//
// Usage:
//
//	go run ./scripts/seed-session.go -user-id dev-user -email dev@aegis.local
//
// The printed cookie goes into an "aegis_session" cookie; if
// CSRF_SECRET is set, a matching anti-forgery token is printed too.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aegisguard/aegis/internal/cache"
	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/token"
)

type output struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

func main() {
	var (
		redisURL = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string")
		userID   = flag.String("user-id", "dev-user", "User ID for the session")
		email    = flag.String("email", "dev@aegis.local", "User email")
		ttl      = flag.Duration("ttl", 24*time.Hour, "Session lifetime")
		format   = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *redisURL == "" {
		fmt.Fprintln(os.Stderr, "REDIS_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := cache.New(ctx, *redisURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect redis:", err)
		os.Exit(1)
	}
	defer store.Close()

	session := &model.Session{
		ID:        ulid.Make().String(),
		UserID:    *userID,
		Email:     *email,
		ExpiresAt: time.Now().UTC().Add(*ttl),
	}

	if err := store.SetSession(ctx, session); err != nil {
		fmt.Fprintln(os.Stderr, "store session:", err)
		os.Exit(1)
	}

	out := output{
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	}

	if secret := os.Getenv("CSRF_SECRET"); secret != "" {
		out.CSRFToken = token.New(secret).Issue(session.ID)
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("session seeded")
	fmt.Println("  cookie:     aegis_session=" + out.SessionID)
	fmt.Println("  user_id:    " + out.UserID)
	fmt.Println("  email:      " + out.Email)
	fmt.Println("  expires_at: " + out.ExpiresAt)
	if out.CSRFToken != "" {
		fmt.Println("  csrf_token: " + out.CSRFToken)
	}
}
