package dto

import (
	"time"

	"github.com/aegisguard/aegis/internal/model"
)

// CreateWebhookRequest represents the request body for registering a
// webhook endpoint.
type CreateWebhookRequest struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	TargetURL   string   `json:"target_url"`
	EventTypes  []string `json:"event_types,omitempty"`
}

// UpdateWebhookRequest represents the request body for patching a
// webhook endpoint. Absent fields are left unchanged.
type UpdateWebhookRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	TargetURL   *string  `json:"target_url,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
	EventTypes  []string `json:"event_types,omitempty"`
}

// WebhookResponse represents a webhook endpoint in API responses. The
// signing secret is never included; see CreateWebhookResponse.
type WebhookResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	TargetURL   string    `json:"target_url"`
	Enabled     bool      `json:"enabled"`
	EventTypes  []string  `json:"event_types"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateWebhookResponse carries the new endpoint plus its plaintext
// signing secret. The secret is shown exactly once.
type CreateWebhookResponse struct {
	WebhookResponse
	Secret string `json:"secret"`
}

// WebhookListResponse represents the owner's webhook endpoints.
type WebhookListResponse struct {
	Data []WebhookResponse `json:"data"`
}

// RotateSecretResponse carries a freshly rotated signing secret.
type RotateSecretResponse struct {
	Secret string `json:"secret"`
}

// DeliveryResponse represents a webhook delivery attempt in API
// responses.
type DeliveryResponse struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	Status         string     `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	MaxAttempts    int        `json:"max_attempts"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int       `json:"last_http_status,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DeliveryListResponse represents paginated delivery history.
type DeliveryListResponse struct {
	Data  []DeliveryResponse `json:"data"`
	Total int                `json:"total"`
}

// ToWebhookResponse converts a WebhookEndpoint model to its DTO.
func ToWebhookResponse(endpoint *model.WebhookEndpoint) *WebhookResponse {
	eventTypes := make([]string, len(endpoint.EventTypes))
	for i, et := range endpoint.EventTypes {
		eventTypes[i] = string(et)
	}
	return &WebhookResponse{
		ID:          endpoint.ID,
		Name:        endpoint.Name,
		Description: endpoint.Description,
		TargetURL:   endpoint.TargetURL,
		Enabled:     endpoint.Enabled,
		EventTypes:  eventTypes,
		CreatedAt:   endpoint.CreatedAt,
		UpdatedAt:   endpoint.UpdatedAt,
	}
}

// ToWebhookListResponse converts a slice of WebhookEndpoint models to
// its DTO.
func ToWebhookListResponse(endpoints []*model.WebhookEndpoint) *WebhookListResponse {
	responses := make([]WebhookResponse, len(endpoints))
	for i, endpoint := range endpoints {
		responses[i] = *ToWebhookResponse(endpoint)
	}
	return &WebhookListResponse{Data: responses}
}

// ToDeliveryResponse converts a WebhookDelivery model to its DTO.
func ToDeliveryResponse(delivery *model.WebhookDelivery) *DeliveryResponse {
	resp := &DeliveryResponse{
		ID:             delivery.ID,
		EventID:        delivery.EventID,
		EventType:      string(delivery.EventType),
		Status:         string(delivery.Status),
		AttemptCount:   delivery.AttemptCount,
		MaxAttempts:    delivery.MaxAttempts,
		LastAttemptAt:  delivery.LastAttemptAt,
		LastHTTPStatus: delivery.LastHTTPStatus,
		LastError:      delivery.LastError,
		CreatedAt:      delivery.CreatedAt,
	}
	if !delivery.IsTerminal() {
		resp.NextRetryAt = &delivery.NextRetryAt
	}
	return resp
}

// ToDeliveryListResponse converts a slice of WebhookDelivery models to
// its DTO.
func ToDeliveryListResponse(deliveries []*model.WebhookDelivery, total int) *DeliveryListResponse {
	responses := make([]DeliveryResponse, len(deliveries))
	for i, delivery := range deliveries {
		responses[i] = *ToDeliveryResponse(delivery)
	}
	return &DeliveryListResponse{Data: responses, Total: total}
}
