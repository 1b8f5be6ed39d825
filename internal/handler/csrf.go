package handler

import (
	"log/slog"
	"net/http"

	"github.com/aegisguard/aegis/internal/auth"
	"github.com/aegisguard/aegis/internal/handler/dto"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/token"
)

// CSRFHandler issues anti-forgery tokens for the authenticated session.
type CSRFHandler struct {
	tokens  *token.Service
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewCSRFHandler creates a new CSRFHandler.
func NewCSRFHandler(tokens *token.Service, logger *slog.Logger, recorder metrics.Recorder) *CSRFHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CSRFHandler{
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
	}
}

// Issue handles GET /api/v1/csrf-token.
// Tokens are bound to the session and expire on their own; issuing one
// writes no server-side state.
func (h *CSRFHandler) Issue(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	h.metrics.IncTokenIssued()

	writeJSON(w, http.StatusOK, dto.CSRFTokenResponse{
		CSRFToken: h.tokens.Issue(authCtx.SessionID),
	})
}
