package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/webhook"
)

// WebhookService handles webhook endpoint management.
type WebhookService struct {
	repo    *webhook.Repository
	audit   audit.Sink
	metrics metrics.Recorder
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(repo *webhook.Repository, sink audit.Sink, recorder metrics.Recorder) *WebhookService {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &WebhookService{
		repo:    repo,
		audit:   sink,
		metrics: recorder,
	}
}

// CreateEndpointInput defines input for registering a webhook endpoint.
type CreateEndpointInput struct {
	Name        string
	Description string
	TargetURL   string
	EventTypes  []string
}

// CreateEndpoint registers a webhook endpoint for the owner and
// returns it along with the plaintext signing secret. The secret is
// not retrievable afterwards.
func (s *WebhookService) CreateEndpoint(ctx context.Context, ownerID string, input CreateEndpointInput) (*model.WebhookEndpoint, string, error) {
	if err := webhook.ValidateTargetURL(input.TargetURL); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidTargetURL, err)
	}

	eventTypes, err := parseEventTypes(input.EventTypes)
	if err != nil {
		return nil, "", err
	}

	secret, err := webhook.GenerateSecret()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate secret: %w", err)
	}

	now := time.Now().UTC()
	endpoint := &model.WebhookEndpoint{
		ID:          newULID(),
		OwnerID:     ownerID,
		TargetURL:   input.TargetURL,
		Secret:      secret,
		Enabled:     true,
		EventTypes:  eventTypes,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateEndpoint(ctx, endpoint); err != nil {
		if errors.Is(err, webhook.ErrEndpointLimit) {
			return nil, "", ErrTooManyEndpoints
		}
		return nil, "", fmt.Errorf("failed to create endpoint: %w", err)
	}

	s.audit.Record(ctx, newEvent(ctx, audit.EventWebhookCreated, webhook.ExtractHost(endpoint.TargetURL)))

	return endpoint, secret, nil
}

// GetEndpoint retrieves one of the owner's webhook endpoints.
func (s *WebhookService) GetEndpoint(ctx context.Context, id, ownerID string) (*model.WebhookEndpoint, error) {
	endpoint, err := s.repo.GetEndpointByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "webhook "+id))
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return endpoint, nil
}

// ListEndpoints retrieves all of the owner's webhook endpoints.
func (s *WebhookService) ListEndpoints(ctx context.Context, ownerID string) ([]*model.WebhookEndpoint, error) {
	return s.repo.ListEndpointsByOwner(ctx, ownerID)
}

// UpdateEndpointInput defines input for patching a webhook endpoint.
// Nil fields are left unchanged.
type UpdateEndpointInput struct {
	Name        *string
	Description *string
	TargetURL   *string
	Enabled     *bool
	EventTypes  []string
}

// UpdateEndpoint applies a partial update to the owner's endpoint.
func (s *WebhookService) UpdateEndpoint(ctx context.Context, id, ownerID string, input UpdateEndpointInput) (*model.WebhookEndpoint, error) {
	if input.Name == nil && input.Description == nil && input.TargetURL == nil &&
		input.Enabled == nil && input.EventTypes == nil {
		return nil, ErrEmptyPatch
	}

	patch := webhook.EndpointPatch{
		Name:        input.Name,
		Description: input.Description,
		Enabled:     input.Enabled,
	}

	if input.TargetURL != nil {
		if err := webhook.ValidateTargetURL(*input.TargetURL); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTargetURL, err)
		}
		patch.TargetURL = input.TargetURL
	}

	if input.EventTypes != nil {
		eventTypes, err := parseEventTypes(input.EventTypes)
		if err != nil {
			return nil, err
		}
		patch.EventTypes = eventTypes
	}

	endpoint, err := s.repo.UpdateEndpointByOwner(ctx, id, ownerID, patch)
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "webhook "+id))
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}

	s.audit.Record(ctx, newEvent(ctx, audit.EventWebhookChanged, webhook.ExtractHost(endpoint.TargetURL)))

	return endpoint, nil
}

// RotateSecret replaces the endpoint's signing secret and returns the
// new plaintext secret once.
func (s *WebhookService) RotateSecret(ctx context.Context, id, ownerID string) (string, error) {
	secret, err := webhook.GenerateSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	if err := s.repo.RotateEndpointSecret(ctx, id, ownerID, secret); err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "webhook "+id))
			return "", ErrWebhookNotFound
		}
		return "", err
	}

	s.audit.Record(ctx, newEvent(ctx, audit.EventWebhookSecretRotated, "webhook "+id))

	return secret, nil
}

// DeleteEndpoint soft-deletes the owner's endpoint. Past delivery
// history stays queryable through the repository.
func (s *WebhookService) DeleteEndpoint(ctx context.Context, id, ownerID string) error {
	if err := s.repo.DeleteEndpointByOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "webhook "+id))
			return ErrWebhookNotFound
		}
		return err
	}

	s.audit.Record(ctx, newEvent(ctx, audit.EventWebhookDeleted, "webhook "+id))

	return nil
}

// ListDeliveriesInput defines input for listing delivery history.
type ListDeliveriesInput struct {
	Statuses []string
	Limit    int
	Offset   int
}

// ListDeliveriesOutput defines output for listing delivery history.
type ListDeliveriesOutput struct {
	Deliveries []*model.WebhookDelivery
	Total      int
}

// ListDeliveries retrieves delivery history for the owner's endpoint.
func (s *WebhookService) ListDeliveries(ctx context.Context, endpointID, ownerID string, input ListDeliveriesInput) (*ListDeliveriesOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	for _, status := range input.Statuses {
		switch model.DeliveryStatus(status) {
		case model.DeliveryStatusPending, model.DeliveryStatusSuccess,
			model.DeliveryStatusFailed, model.DeliveryStatusExhausted:
		default:
			return nil, ErrInvalidStatus
		}
	}

	deliveries, total, err := s.repo.ListDeliveriesByEndpoint(ctx, endpointID, ownerID, input.Statuses, input.Limit, input.Offset)
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "webhook "+endpointID))
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}

	return &ListDeliveriesOutput{Deliveries: deliveries, Total: total}, nil
}

// RetryDelivery re-queues an exhausted delivery for the owner.
func (s *WebhookService) RetryDelivery(ctx context.Context, deliveryID, ownerID string) error {
	if err := s.repo.ResetDeliveryForRetry(ctx, deliveryID, ownerID); err != nil {
		if errors.Is(err, webhook.ErrDeliveryNotFound) {
			return ErrDeliveryNotFound
		}
		return err
	}
	return nil
}

// parseEventTypes validates event type names, defaulting to all types.
func parseEventTypes(names []string) ([]model.EventType, error) {
	if len(names) == 0 {
		return append([]model.EventType{}, model.ValidEventTypes...), nil
	}

	eventTypes := make([]model.EventType, 0, len(names))
	for _, name := range names {
		et := model.EventType(name)
		if !model.IsValidEventType(et) {
			return nil, ErrInvalidEventType
		}
		eventTypes = append(eventTypes, et)
	}
	return eventTypes, nil
}
