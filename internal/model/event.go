package model

import "time"

// ThreatEvent is a threat lifecycle event flowing through the alert
// stream. ID is the stream entry ID and doubles as the idempotency
// key for webhook deliveries.
type ThreatEvent struct {
	ID         string
	Type       EventType
	OwnerID    string
	ThreatID   string
	Category   string
	Severity   string
	Status     string
	OccurredAt time.Time
}
