package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/services"
)

// QuickAssessRequest for POST /api/quick
type QuickAssessRequest struct {
	Rows []services.MaterialRow `json:"rows"`
}

// QuickAssessResponse for POST /api/quick
type QuickAssessResponse struct {
	Results []services.QuickResult `json:"results"`
	Totals  services.QuickTotals   `json:"totals"`
}

// QuickHandler handles fixed-factor quick assessments. These are stateless:
// nothing is persisted and no session is needed.
type QuickHandler struct {
	logger *zap.Logger
}

// NewQuickHandler creates a new quick assessment handler.
func NewQuickHandler(logger *zap.Logger) *QuickHandler {
	return &QuickHandler{logger: logger}
}

// RegisterRoutes registers the quick handler's routes on the given mux.
func (h *QuickHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quick", h.Assess)
}

// Assess handles POST /api/quick
func (h *QuickHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req QuickAssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	results, totals := services.QuickAssess(req.Rows)

	response := QuickAssessResponse{Results: results, Totals: totals}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
