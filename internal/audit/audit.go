// Package audit records security events through an injected sink.
//
// Handlers and middleware report events (rejected tokens, ownership
// probes, conflicts) to a Sink passed in at construction; there is no
// process-wide mutable event list.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event types recorded by the API.
const (
	EventUnauthenticated      = "unauthenticated"
	EventTokenMissing         = "token_missing"
	EventTokenInvalid         = "token_invalid"
	EventOwnershipMiss        = "ownership_miss"
	EventSubscriptionConflict = "subscription_conflict"
	EventSubscriptionCreated  = "subscription_created"
	EventSubscriptionChanged  = "subscription_changed"
	EventProtectionChanged    = "protection_changed"
	EventThreatReported       = "threat_reported"
	EventThreatUpdated        = "threat_updated"
	EventScanRequested        = "scan_requested"
	EventWebhookCreated       = "webhook_created"
	EventWebhookChanged       = "webhook_changed"
	EventWebhookDeleted       = "webhook_deleted"
	EventWebhookSecretRotated = "webhook_secret_rotated"
)

// Event is one security-relevant occurrence.
// UserID and SessionID may be empty for unauthenticated events.
type Event struct {
	Time      time.Time `json:"time"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Sink receives audit events. Implementations must be safe for
// concurrent use; Record must not block request handling.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// SlogSink writes audit events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink backed by the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Record logs the event as a structured "audit event" entry.
func (s *SlogSink) Record(ctx context.Context, event Event) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID),
		slog.String("session_id", event.SessionID),
		slog.String("request_id", event.RequestID),
		slog.String("detail", event.Detail),
	)
}

// RingSink keeps the most recent events in a fixed-capacity ring.
// When the ring is full the oldest event is evicted. Useful for tests
// and for exposing recent security events without unbounded growth.
type RingSink struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	next     int
	full     bool
}

// NewRingSink creates a RingSink holding at most capacity events.
// Capacity values below 1 are clamped to 1.
func NewRingSink(capacity int) *RingSink {
	if capacity < 1 {
		capacity = 1
	}
	return &RingSink{
		events:   make([]Event, capacity),
		capacity: capacity,
	}
}

// Record stores the event, evicting the oldest when full.
func (r *RingSink) Record(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
}

// Events returns the stored events, oldest first.
func (r *RingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}

	out := make([]Event, 0, r.capacity)
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}

// Len returns the number of stored events.
func (r *RingSink) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		return r.capacity
	}
	return r.next
}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

// Record forwards the event to every sink.
func (m MultiSink) Record(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Record(ctx, event)
	}
}

// NopSink discards all events.
type NopSink struct{}

// Record is a no-op.
func (NopSink) Record(context.Context, Event) {}
