package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/middleware"
)

// SessionResponse for GET /api/session
type SessionResponse struct {
	SessionID string `json:"session_id"`
	IsNew     bool   `json:"is_new"`
}

// SessionHandler handles session resolution requests.
type SessionHandler struct {
	resolver *middleware.SessionResolver
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(resolver *middleware.SessionResolver, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{resolver: resolver, logger: logger}
}

// RegisterRoutes registers the session handler's routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.Resolve)
}

// Resolve handles GET /api/session
//
// It resolves the client's token (query parameter or cookie) to a session
// id, minting one on first sight, and echoes it back for the client to
// carry on subsequent requests.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	sessionID, isNew := h.resolver.ResolveRequest(w, r)

	response := SessionResponse{
		SessionID: sessionID,
		IsNew:     isNew,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
