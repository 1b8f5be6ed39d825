package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/handler/dto"
	"github.com/aegisguard/aegis/internal/service"
)

// WebhookHandler handles HTTP requests for webhook endpoint management.
type WebhookHandler struct {
	svc    *service.WebhookService
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/webhooks.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	endpoint, secret, err := h.svc.CreateEndpoint(r.Context(), ownerID, service.CreateEndpointInput{
		Name:        req.Name,
		Description: req.Description,
		TargetURL:   req.TargetURL,
		EventTypes:  req.EventTypes,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_created", "webhook_id", endpoint.ID)

	writeJSON(w, http.StatusCreated, dto.CreateWebhookResponse{
		WebhookResponse: *dto.ToWebhookResponse(endpoint),
		Secret:          secret,
	})
}

// List handles GET /api/v1/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	endpoints, err := h.svc.ListEndpoints(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWebhookListResponse(endpoints))
}

// Get handles GET /api/v1/webhooks/{id}.
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	endpoint, err := h.svc.GetEndpoint(r.Context(), id, ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWebhookResponse(endpoint))
}

// Update handles PATCH /api/v1/webhooks/{id}.
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	endpoint, err := h.svc.UpdateEndpoint(r.Context(), id, ownerID, service.UpdateEndpointInput{
		Name:        req.Name,
		Description: req.Description,
		TargetURL:   req.TargetURL,
		Enabled:     req.Enabled,
		EventTypes:  req.EventTypes,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_updated", "webhook_id", endpoint.ID)

	writeJSON(w, http.StatusOK, dto.ToWebhookResponse(endpoint))
}

// Delete handles DELETE /api/v1/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	if err := h.svc.DeleteEndpoint(r.Context(), id, ownerID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_deleted", "webhook_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// RotateSecret handles POST /api/v1/webhooks/{id}/rotate-secret.
func (h *WebhookHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	secret, err := h.svc.RotateSecret(r.Context(), id, ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_secret_rotated", "webhook_id", id)

	writeJSON(w, http.StatusOK, dto.RotateSecretResponse{Secret: secret})
}

// ListDeliveries handles GET /api/v1/webhooks/{id}/deliveries.
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	input := service.ListDeliveriesInput{}
	if statuses := query.Get("status"); statuses != "" {
		input.Statuses = strings.Split(statuses, ",")
	}
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			input.Limit = parsed
		}
	}
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			input.Offset = parsed
		}
	}

	result, err := h.svc.ListDeliveries(r.Context(), id, ownerID, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDeliveryListResponse(result.Deliveries, result.Total))
}

// RetryDelivery handles POST /api/v1/webhooks/deliveries/{deliveryID}/retry.
func (h *WebhookHandler) RetryDelivery(w http.ResponseWriter, r *http.Request) {
	deliveryID := chi.URLParam(r, "deliveryID")
	if deliveryID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Delivery ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	if err := h.svc.RetryDelivery(r.Context(), deliveryID, ownerID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_delivery_requeued", "delivery_id", deliveryID)

	w.WriteHeader(http.StatusAccepted)
}

// handleServiceError maps service errors to HTTP responses.
func (h *WebhookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWebhookNotFound):
		writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook endpoint not found")
	case errors.Is(err, service.ErrDeliveryNotFound):
		writeError(w, http.StatusNotFound, "DELIVERY_NOT_FOUND", "Webhook delivery not found or not retryable")
	case errors.Is(err, service.ErrInvalidTargetURL):
		writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", "Target URL must be a public HTTPS endpoint")
	case errors.Is(err, service.ErrInvalidEventType):
		writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Unknown webhook event type")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Status must be pending, success, failed or exhausted")
	case errors.Is(err, service.ErrTooManyEndpoints):
		writeError(w, http.StatusConflict, "TOO_MANY_WEBHOOKS", "Webhook endpoint limit reached")
	case errors.Is(err, service.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "EMPTY_PATCH", "No fields to update")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
