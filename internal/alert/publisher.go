// Package alert moves threat lifecycle events from the request path to
// the delivery workers through a Redis stream.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
)

const (
	// StreamKey is the Redis stream for threat events.
	StreamKey = "stream:threat_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:threat_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// ThreatEventPayload is the compressed event format for the stream.
type ThreatEventPayload struct {
	EventType  string `json:"et"`           // threat.reported / threat.resolved
	ThreatID   string `json:"tid"`          // threat record ID
	OwnerID    string `json:"oid"`          // owning user ID
	Category   string `json:"c"`            // threat category
	Severity   string `json:"sv"`           // threat severity
	Status     string `json:"st,omitempty"` // triage status
	OccurredAt int64  `json:"t"`            // Unix milliseconds
}

// Publisher enqueues threat events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new threat event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "alert.publisher"),
		metrics: recorder,
	}
}

// Publish adds a threat event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ThreatEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller. A dropped alert
// only delays the owner's webhook; the threat row itself is already
// committed, so errors are logged but not returned.
func (p *Publisher) PublishAsync(event ThreatEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish threat event",
				"threat_id", event.ThreatID,
				"event_type", event.EventType,
				"error", err,
			)
			p.metrics.IncAlertPublished("dropped")
			return
		}

		p.logger.Debug("threat event published",
			"threat_id", event.ThreatID,
			"event_type", event.EventType,
			"stream_id", streamID,
		)
		p.metrics.IncAlertPublished("success")
	}()
}

// PayloadFromThreat builds a stream payload for a threat transition.
func PayloadFromThreat(eventType model.EventType, threat *model.Threat) ThreatEventPayload {
	return ThreatEventPayload{
		EventType:  string(eventType),
		ThreatID:   threat.ID,
		OwnerID:    threat.OwnerID,
		Category:   threat.Category,
		Severity:   string(threat.Severity),
		Status:     string(threat.Status),
		OccurredAt: time.Now().UTC().UnixMilli(),
	}
}
