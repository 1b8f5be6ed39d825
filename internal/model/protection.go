// Package model defines domain entities for the application.
package model

import "time"

// Protection represents the per-user protection toggles.
// Exactly one row exists per owner; the row is provisioned with
// defaults on first access.
type Protection struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"owner_id"`
	DeepfakeAlerts     bool      `json:"deepfake_alerts"`
	ImpersonationWatch bool      `json:"impersonation_watch"`
	DataBreachMonitor  bool      `json:"data_breach_monitor"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultProtection returns the toggle defaults for a newly
// provisioned owner. All switches start enabled.
func DefaultProtection(id, ownerID string, now time.Time) *Protection {
	return &Protection{
		ID:                 id,
		OwnerID:            ownerID,
		DeepfakeAlerts:     true,
		ImpersonationWatch: true,
		DataBreachMonitor:  true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
