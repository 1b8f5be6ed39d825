// Package service provides business logic for the application.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/auth"
)

// Service errors.
var (
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrInvalidBillingCycle  = errors.New("invalid billing cycle")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrSubscriptionExists   = errors.New("subscription already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrThreatNotFound       = errors.New("threat not found")
	ErrInvalidSeverity      = errors.New("invalid severity")
	ErrInvalidCategory      = errors.New("invalid threat category")
	ErrInvalidSource        = errors.New("invalid source")
	ErrInvalidMediaURL      = errors.New("invalid media URL")
	ErrDescriptionTooLong   = errors.New("description too long")
	ErrEmptyPatch           = errors.New("no fields to update")
	ErrInvalidCursor        = errors.New("invalid pagination cursor")
	ErrWebhookNotFound      = errors.New("webhook endpoint not found")
	ErrDeliveryNotFound     = errors.New("webhook delivery not found")
	ErrInvalidTargetURL     = errors.New("invalid webhook target URL")
	ErrInvalidEventType     = errors.New("invalid webhook event type")
	ErrTooManyEndpoints     = errors.New("webhook endpoint limit reached")
)

const maxDescriptionLength = 2048

// newULID generates a lexicographically sortable unique ID.
func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// newEvent builds an audit event stamped with the caller's identity
// from the request context, if present.
func newEvent(ctx context.Context, eventType, detail string) audit.Event {
	event := audit.Event{
		Time:   time.Now().UTC(),
		Type:   eventType,
		Detail: detail,
	}
	if authCtx := auth.AuthFromContext(ctx); authCtx != nil {
		event.UserID = authCtx.UserID
		event.SessionID = authCtx.SessionID
	}
	return event
}
