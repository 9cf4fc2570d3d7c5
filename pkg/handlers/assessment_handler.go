package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
	"github.com/verdantmetrics/lca-engine/pkg/middleware"
	"github.com/verdantmetrics/lca-engine/pkg/models"
	"github.com/verdantmetrics/lca-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// TotalsResponse for GET /api/assessment/totals
type TotalsResponse struct {
	Totals   models.TotalsReport   `json:"totals"`
	Warnings []models.UnitMismatch `json:"warnings"`
}

// DraftEditRequest for POST /api/assessment/draft
type DraftEditRequest struct {
	Draft models.StageDraft `json:"draft"`
	Edit  models.DraftEdit  `json:"edit"`
}

// ============================================================================
// Handler
// ============================================================================

// AssessmentHandler handles LCA document HTTP requests.
type AssessmentHandler struct {
	assessmentService services.AssessmentService
	logger            *zap.Logger
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(assessmentService services.AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		logger:            logger,
	}
}

// SessionMiddleware wraps a handler with session resolution.
type SessionMiddleware func(http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers the assessment handler's routes on the given mux.
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux, session SessionMiddleware) {
	mux.HandleFunc("GET /api/assessment", session(h.Get))
	mux.HandleFunc("DELETE /api/assessment", session(h.Reset))
	mux.HandleFunc("PUT /api/assessment/stages/{name}", session(h.SaveStage))
	mux.HandleFunc("DELETE /api/assessment/stages/{name}", session(h.DeleteStage))
	mux.HandleFunc("GET /api/assessment/totals", session(h.Totals))
	mux.HandleFunc("GET /api/assessment/export", session(h.Export))
	mux.HandleFunc("POST /api/assessment/draft", session(h.ApplyDraftEdit))
}

func (h *AssessmentHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusInternalServerError, "no_session", "No session resolved for request"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return sessionID, true
}

// Get handles GET /api/assessment
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	doc, err := h.assessmentService.GetDocument(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load document",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "load_document_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: doc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SaveStage handles PUT /api/assessment/stages/{name}
func (h *AssessmentHandler) SaveStage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var draft models.StageDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	// The path names the stage being saved; it wins over the body.
	draft.Name = r.PathValue("name")

	doc, err := h.assessmentService.SaveStage(r.Context(), sessionID, draft)
	if err != nil {
		h.writeSaveError(w, sessionID, draft.Name, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: doc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AssessmentHandler) writeSaveError(w http.ResponseWriter, sessionID, stageName string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyStageName), errors.Is(err, apperrors.ErrNoValidInputs):
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	case errors.Is(err, apperrors.ErrConflict):
		if err := ErrorResponse(w, http.StatusConflict, "revision_conflict", "Document changed concurrently; reload and retry"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		h.logger.Error("Failed to save stage",
			zap.String("session_id", sessionID),
			zap.String("stage", stageName),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "save_stage_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

// DeleteStage handles DELETE /api/assessment/stages/{name}
func (h *AssessmentHandler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")

	doc, err := h.assessmentService.DeleteStage(r.Context(), sessionID, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "stage_not_found", fmt.Sprintf("No stage named %q", name)); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "revision_conflict", "Document changed concurrently; reload and retry"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete stage",
			zap.String("session_id", sessionID),
			zap.String("stage", name),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_stage_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: doc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reset handles DELETE /api/assessment
func (h *AssessmentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.assessmentService.Reset(r.Context(), sessionID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		h.logger.Error("Failed to reset document",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "reset_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Assessment reset"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Totals handles GET /api/assessment/totals
func (h *AssessmentHandler) Totals(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	totals, warnings, err := h.assessmentService.Totals(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to aggregate totals",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "aggregate_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if warnings == nil {
		warnings = []models.UnitMismatch{}
	}
	response := TotalsResponse{Totals: totals, Warnings: warnings}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Export handles GET /api/assessment/export
//
// Streams the flattened Stage x Input x Impact rows as a CSV attachment.
func (h *AssessmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	rows, err := h.assessmentService.Export(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to export assessment",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "export_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lca-assessment.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(services.ExportHeader); err != nil {
		h.logger.Error("Failed to write CSV header", zap.Error(err))
		return
	}
	for _, row := range rows {
		record := []string{
			row.Stage,
			row.Input,
			row.Impact,
			row.FunctionalUnit,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			strconv.FormatFloat(row.ImpactFactor, 'f', -1, 64),
			row.ImpactUnit,
		}
		if err := writer.Write(record); err != nil {
			h.logger.Error("Failed to write CSV row", zap.Error(err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("Failed to flush CSV", zap.Error(err))
	}
}

// ApplyDraftEdit handles POST /api/assessment/draft
//
// Applies one edit event to the submitted draft and returns the updated
// draft. Drafts are stateless on the server; they round-trip through the
// client until committed with SaveStage.
func (h *AssessmentHandler) ApplyDraftEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionID(w, r); !ok {
		return
	}

	var req DraftEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	draft, err := models.ApplyEdit(req.Draft, req.Edit)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_edit", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: draft}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
