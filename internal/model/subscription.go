// Package model defines domain entities for the application.
package model

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// IsValid checks if the subscription status is a known value.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionExpired:
		return true
	default:
		return false
	}
}

// BillingCycle represents how often a subscription is billed.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingAnnual  BillingCycle = "annual"
)

// IsValid checks if the billing cycle is a known value.
func (b BillingCycle) IsValid() bool {
	return b == BillingMonthly || b == BillingAnnual
}

// Subscription represents a user's plan selection.
// Exactly one subscription row exists per owner, enforced by a
// unique constraint on owner_id. Cancellation is a status transition,
// never a physical delete.
type Subscription struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	PlanID       string             `json:"plan_id"`
	BillingCycle BillingCycle       `json:"billing_cycle"`
	Status       SubscriptionStatus `json:"status"`
	StartedAt    time.Time          `json:"started_at"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// IsActive returns true if the subscription grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}
