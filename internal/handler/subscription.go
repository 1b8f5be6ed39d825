package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/handler/dto"
	"github.com/aegisguard/aegis/internal/service"
)

// SubscriptionHandler handles HTTP requests for subscription operations.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/v1/subscription.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	sub, err := h.svc.Get(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// Create handles POST /api/v1/subscription.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sub, err := h.svc.Create(r.Context(), ownerID, service.CreateSubscriptionInput{
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("subscription_created",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
	)

	writeJSON(w, http.StatusCreated, dto.ToSubscriptionResponse(sub))
}

// Update handles PATCH /api/v1/subscription.
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sub, err := h.svc.Update(r.Context(), ownerID, service.UpdateSubscriptionInput{
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
		Status:       req.Status,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("subscription_updated",
		"subscription_id", sub.ID,
		"status", string(sub.Status),
	)

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// Cancel handles DELETE /api/v1/subscription.
// Cancellation is a status transition; the row is kept for billing
// history, so the cancelled subscription is returned rather than 204.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	sub, err := h.svc.Cancel(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("subscription_cancelled", "subscription_id", sub.ID)

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// Plans handles GET /api/v1/plans. The catalog is public.
func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToPlanListResponse(h.svc.Plans()))
}

// handleServiceError maps service errors to HTTP responses.
func (h *SubscriptionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "No subscription found")
	case errors.Is(err, service.ErrSubscriptionExists):
		writeError(w, http.StatusConflict, "SUBSCRIPTION_EXISTS", "A subscription already exists for this account")
	case errors.Is(err, service.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "UNKNOWN_PLAN", "Unknown plan")
	case errors.Is(err, service.ErrInvalidBillingCycle):
		writeError(w, http.StatusBadRequest, "INVALID_BILLING_CYCLE", "Billing cycle must be monthly or annual")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Invalid subscription status")
	case errors.Is(err, service.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "EMPTY_PATCH", "No fields to update")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
