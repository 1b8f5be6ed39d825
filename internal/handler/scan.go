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

// ScanHandler handles HTTP requests for on-demand scans.
type ScanHandler struct {
	svc    *service.ScanService
	logger *slog.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(svc *service.ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		svc:    svc,
		logger: logger,
	}
}

// Scan handles POST /api/v1/scan.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Scan(r.Context(), ownerID, service.ScanInput{
		MediaURL: req.MediaURL,
		Category: req.Category,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("scan_completed",
		"scan_id", result.ID,
		"verdict", result.Verdict,
	)

	response := dto.ScanResponse{
		ID:        result.ID,
		Verdict:   result.Verdict,
		ScannedAt: result.ScannedAt,
	}
	if result.Threat != nil {
		response.Threat = dto.ToThreatResponse(result.Threat)
	}

	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ScanHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMediaURL):
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_URL", "Media URL must be absolute http(s)")
	case errors.Is(err, service.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "INVALID_CATEGORY", "Unknown threat category")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
