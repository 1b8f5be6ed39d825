package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/handler/dto"
	"github.com/aegisguard/aegis/internal/service"
)

// ThreatHandler handles HTTP requests for threat log operations.
type ThreatHandler struct {
	svc    *service.ThreatService
	logger *slog.Logger
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(svc *service.ThreatService, logger *slog.Logger) *ThreatHandler {
	return &ThreatHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/threats.
func (h *ThreatHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	limit := 20
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	input := service.ListThreatsInput{
		Status: query.Get("status"),
		Cursor: query.Get("cursor"),
		Limit:  limit,
	}

	if after := query.Get("detected_after"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			input.DetectedAfter = &t
		}
	}
	if before := query.Get("detected_before"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			input.DetectedBefore = &t
		}
	}

	result, err := h.svc.List(r.Context(), ownerID, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToThreatListResponse(result.Threats, result.NextCursor, result.HasMore))
}

// Report handles POST /api/v1/threats.
func (h *ThreatHandler) Report(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.ReportThreatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	threat, err := h.svc.Report(r.Context(), ownerID, service.ReportThreatInput{
		Source:      req.Source,
		Category:    req.Category,
		Severity:    req.Severity,
		Description: req.Description,
		MediaURL:    req.MediaURL,
		DetectedAt:  req.DetectedAt,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("threat_reported",
		"threat_id", threat.ID,
		"category", threat.Category,
		"severity", string(threat.Severity),
	)

	writeJSON(w, http.StatusCreated, dto.ToThreatResponse(threat))
}

// Get handles GET /api/v1/threats/{id}.
func (h *ThreatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Threat ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	threat, err := h.svc.Get(r.Context(), id, ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToThreatResponse(threat))
}

// Update handles PATCH /api/v1/threats/{id}.
func (h *ThreatHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Threat ID is required")
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.UpdateThreatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	threat, err := h.svc.Update(r.Context(), id, ownerID, service.UpdateThreatInput{
		Status:   req.Status,
		Severity: req.Severity,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("threat_updated",
		"threat_id", threat.ID,
		"status", string(threat.Status),
	)

	writeJSON(w, http.StatusOK, dto.ToThreatResponse(threat))
}

// handleServiceError maps service errors to HTTP responses.
func (h *ThreatHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrThreatNotFound):
		writeError(w, http.StatusNotFound, "THREAT_NOT_FOUND", "Threat not found")
	case errors.Is(err, service.ErrInvalidSource):
		writeError(w, http.StatusBadRequest, "INVALID_SOURCE", "Source is required")
	case errors.Is(err, service.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "INVALID_CATEGORY", "Unknown threat category")
	case errors.Is(err, service.ErrInvalidSeverity):
		writeError(w, http.StatusBadRequest, "INVALID_SEVERITY", "Severity must be low, medium, high or critical")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Status must be open, acknowledged or resolved")
	case errors.Is(err, service.ErrInvalidMediaURL):
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_URL", "Media URL must be absolute http(s)")
	case errors.Is(err, service.ErrDescriptionTooLong):
		writeError(w, http.StatusBadRequest, "DESCRIPTION_TOO_LONG", "Description exceeds maximum length")
	case errors.Is(err, service.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "EMPTY_PATCH", "No fields to update")
	case errors.Is(err, service.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
