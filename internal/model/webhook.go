// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// EventType represents webhook event types.
type EventType string

const (
	EventTypeThreatReported EventType = "threat.reported"
	EventTypeThreatResolved EventType = "threat.resolved"
)

// ValidEventTypes contains all valid event types.
var ValidEventTypes = []EventType{EventTypeThreatReported, EventTypeThreatResolved}

// IsValidEventType checks if an event type is valid.
func IsValidEventType(et EventType) bool {
	return slices.Contains(ValidEventTypes, et)
}

// DeliveryStatus represents webhook delivery state.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSuccess   DeliveryStatus = "success"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusExhausted DeliveryStatus = "exhausted"
)

// WebhookEndpoint represents an owner's webhook configuration.
// The signing secret is shown once at creation and never exposed
// through the API afterwards.
type WebhookEndpoint struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	TargetURL   string      `json:"target_url"`
	Secret      string      `json:"-"`
	Enabled     bool        `json:"enabled"`
	EventTypes  []EventType `json:"event_types"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"-"`
}

// IsDeleted returns true if the endpoint is soft-deleted.
func (e *WebhookEndpoint) IsDeleted() bool {
	return e.DeletedAt != nil
}

// IsActive returns true if the endpoint can receive webhooks.
func (e *WebhookEndpoint) IsActive() bool {
	return e.Enabled && !e.IsDeleted()
}

// SubscribesToEvent checks if endpoint subscribes to given event type.
func (e *WebhookEndpoint) SubscribesToEvent(et EventType) bool {
	return slices.Contains(e.EventTypes, et)
}

// WebhookDelivery represents a delivery attempt record.
type WebhookDelivery struct {
	ID             string         `json:"id"`
	EndpointID     string         `json:"endpoint_id"`
	EventID        string         `json:"event_id"`
	EventType      EventType      `json:"event_type"`
	PayloadJSON    string         `json:"-"`
	Status         DeliveryStatus `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	NextRetryAt    time.Time      `json:"next_retry_at,omitempty"`
	LastAttemptAt  *time.Time     `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int           `json:"last_http_status,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CanRetry returns true if delivery can be retried.
func (d *WebhookDelivery) CanRetry() bool {
	return d.Status == DeliveryStatusFailed && d.AttemptCount < d.MaxAttempts
}

// IsTerminal returns true if delivery is in a terminal state.
func (d *WebhookDelivery) IsTerminal() bool {
	return d.Status == DeliveryStatusSuccess || d.Status == DeliveryStatusExhausted
}

// WebhookPayload represents the body sent to webhook endpoints.
type WebhookPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}
