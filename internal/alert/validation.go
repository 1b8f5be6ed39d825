package alert

import (
	"fmt"
	"slices"

	"github.com/aegisguard/aegis/internal/model"
)

const maxIDLength = 64

// ValidateThreatEventPayload validates threat event payload fields
// before they are handed to the dispatcher.
func ValidateThreatEventPayload(payload ThreatEventPayload) error {
	if !model.IsValidEventType(model.EventType(payload.EventType)) {
		return fmt.Errorf("unknown event type %q", payload.EventType)
	}
	if payload.ThreatID == "" {
		return fmt.Errorf("threat_id is required")
	}
	if len(payload.ThreatID) > maxIDLength {
		return fmt.Errorf("threat_id too long")
	}
	if payload.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if len(payload.OwnerID) > maxIDLength {
		return fmt.Errorf("owner_id too long")
	}
	if !slices.Contains(model.ValidThreatCategories, payload.Category) {
		return fmt.Errorf("unknown category %q", payload.Category)
	}
	if !model.ThreatSeverity(payload.Severity).IsValid() {
		return fmt.Errorf("unknown severity %q", payload.Severity)
	}
	if payload.Status != "" && !model.ThreatStatus(payload.Status).IsValid() {
		return fmt.Errorf("unknown status %q", payload.Status)
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}
