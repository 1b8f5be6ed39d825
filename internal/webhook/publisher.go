package webhook

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aegisguard/aegis/internal/model"
)

// Publisher creates webhook delivery records when threat events occur.
type Publisher struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPublisher creates a new webhook publisher.
func NewPublisher(repo *Repository, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		logger: logger.With("component", "webhook.publisher"),
	}
}

// DispatchThreatEvent fans a threat event out to all of the owner's
// active endpoints subscribed to its type. Delivery records are
// deduplicated on (event, endpoint), so redelivered stream entries
// are harmless.
func (p *Publisher) DispatchThreatEvent(ctx context.Context, event *model.ThreatEvent) error {
	endpoints, err := p.repo.ListActiveEndpointsByOwnerAndEvent(ctx, event.OwnerID, event.Type)
	if err != nil {
		return fmt.Errorf("list active endpoints: %w", err)
	}

	if len(endpoints) == 0 {
		return nil
	}

	payload := model.WebhookPayload{
		EventType: string(event.Type),
		EventID:   event.ID,
		Timestamp: event.OccurredAt,
		Data: map[string]any{
			"threat_id": event.ThreatID,
			"category":  event.Category,
			"severity":  event.Severity,
			"status":    event.Status,
		},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	for _, endpoint := range endpoints {
		delivery := &model.WebhookDelivery{
			ID:           newULID(),
			EndpointID:   endpoint.ID,
			EventID:      event.ID,
			EventType:    event.Type,
			PayloadJSON:  string(payloadJSON),
			Status:       model.DeliveryStatusPending,
			AttemptCount: 0,
			MaxAttempts:  DefaultMaxAttempts,
			NextRetryAt:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
			p.logger.Warn("failed to create delivery",
				"endpoint_id", endpoint.ID,
				"event_id", event.ID,
				"error", err,
			)
			continue
		}

		p.logger.Debug("webhook delivery created",
			"delivery_id", delivery.ID,
			"endpoint_id", endpoint.ID,
			"event_id", event.ID,
		)
	}

	return nil
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
