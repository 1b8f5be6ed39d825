// Package model defines domain entities for the application.
package model

import "time"

// ThreatStatus represents the triage state of a threat record.
type ThreatStatus string

const (
	ThreatOpen         ThreatStatus = "open"
	ThreatAcknowledged ThreatStatus = "acknowledged"
	ThreatResolved     ThreatStatus = "resolved"
)

// IsValid checks if the threat status is a known value.
func (s ThreatStatus) IsValid() bool {
	switch s {
	case ThreatOpen, ThreatAcknowledged, ThreatResolved:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states that end the triage lifecycle.
func (s ThreatStatus) IsTerminal() bool {
	return s == ThreatResolved
}

// ThreatSeverity classifies how urgent a threat is.
type ThreatSeverity string

const (
	SeverityLow      ThreatSeverity = "low"
	SeverityMedium   ThreatSeverity = "medium"
	SeverityHigh     ThreatSeverity = "high"
	SeverityCritical ThreatSeverity = "critical"
)

// IsValid checks if the severity is a known value.
func (s ThreatSeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Threat categories reported by scans and monitoring.
const (
	CategoryDeepfakeVideo = "deepfake_video"
	CategoryVoiceClone    = "voice_clone"
	CategoryImpersonation = "impersonation_profile"
	CategoryDataBreach    = "data_breach"
)

// ValidThreatCategories contains all known threat categories.
var ValidThreatCategories = []string{
	CategoryDeepfakeVideo,
	CategoryVoiceClone,
	CategoryImpersonation,
	CategoryDataBreach,
}

// Threat represents a detected threat record owned by one user.
// ResolvedAt is stamped server-side when the status transitions to
// resolved; it is never accepted from client input.
type Threat struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Source      string         `json:"source"`
	Category    string         `json:"category"`
	Severity    ThreatSeverity `json:"severity"`
	Status      ThreatStatus   `json:"status"`
	Description string         `json:"description"`
	MediaURL    string         `json:"media_url,omitempty"`
	DetectedAt  time.Time      `json:"detected_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
