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

// ProtectionHandler handles HTTP requests for protection toggles.
type ProtectionHandler struct {
	svc    *service.ProtectionService
	logger *slog.Logger
}

// NewProtectionHandler creates a new ProtectionHandler.
func NewProtectionHandler(svc *service.ProtectionService, logger *slog.Logger) *ProtectionHandler {
	return &ProtectionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/v1/protection.
// The first read provisions the row with defaults, so this never 404s
// for an authenticated user.
func (h *ProtectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	prot, err := h.svc.Get(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProtectionResponse(prot))
}

// Update handles PATCH /api/v1/protection.
func (h *ProtectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.UpdateProtectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	prot, err := h.svc.Update(r.Context(), ownerID, service.UpdateProtectionInput{
		DeepfakeAlerts:     req.DeepfakeAlerts,
		ImpersonationWatch: req.ImpersonationWatch,
		DataBreachMonitor:  req.DataBreachMonitor,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("protection_updated", "protection_id", prot.ID)

	writeJSON(w, http.StatusOK, dto.ToProtectionResponse(prot))
}

// handleServiceError maps service errors to HTTP responses.
func (h *ProtectionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "EMPTY_PATCH", "No fields to update")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
