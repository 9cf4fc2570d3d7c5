package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
	"github.com/verdantmetrics/lca-engine/pkg/models"
	"github.com/verdantmetrics/lca-engine/pkg/repositories"
)

// AssessmentService owns a session's LCA document: loading it, committing
// stage drafts, deleting stages, and deriving totals and export rows.
type AssessmentService interface {
	// GetDocument returns the session's document, creating an empty one on
	// first sight and upgrading legacy-schema documents in place.
	GetDocument(ctx context.Context, sessionID string) (*models.Document, error)

	// SaveStage validates a stage draft and commits it to the document.
	// A stage saved under an existing name replaces it entirely.
	SaveStage(ctx context.Context, sessionID string, draft models.StageDraft) (*models.Document, error)

	// DeleteStage removes a stage by name and persists immediately.
	DeleteStage(ctx context.Context, sessionID string, name string) (*models.Document, error)

	// Reset discards the session's document entirely.
	Reset(ctx context.Context, sessionID string) error

	// Totals aggregates the persisted document into a totals report plus
	// any unit-mismatch warnings.
	Totals(ctx context.Context, sessionID string) (models.TotalsReport, []models.UnitMismatch, error)

	// Export flattens the persisted document into spreadsheet rows.
	Export(ctx context.Context, sessionID string) ([]ExportRow, error)
}

type assessmentService struct {
	repo   repositories.DocumentRepository
	logger *zap.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(repo repositories.DocumentRepository, logger *zap.Logger) AssessmentService {
	return &assessmentService{repo: repo, logger: logger}
}

func (s *assessmentService) GetDocument(ctx context.Context, sessionID string) (*models.Document, error) {
	doc, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if doc.SchemaVersion == models.SchemaVersionLegacy {
		// Write back the migrated shape so the upgrade happens once.
		if err := s.repo.PutStages(ctx, sessionID, doc.Stages, doc.StageOrder, doc.Revision); err != nil {
			return nil, fmt.Errorf("failed to persist schema migration: %w", err)
		}
		s.logger.Info("Migrated legacy document",
			zap.String("session_id", sessionID),
			zap.Int("stages", len(doc.Stages)))

		doc, err = s.repo.Get(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload migrated document: %w", err)
		}
	}

	return doc, nil
}

func (s *assessmentService) SaveStage(ctx context.Context, sessionID string, draft models.StageDraft) (*models.Document, error) {
	stage, err := draft.BuildStage()
	if err != nil {
		return nil, err
	}

	doc, err := s.GetDocument(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, exists := doc.Stages[stage.Name]
	doc.Stages[stage.Name] = stage
	if !exists {
		doc.StageOrder = append(doc.StageOrder, stage.Name)
	}

	if err := s.repo.PutStages(ctx, sessionID, doc.Stages, doc.StageOrder, doc.Revision); err != nil {
		return nil, err
	}

	return s.GetDocument(ctx, sessionID)
}

func (s *assessmentService) DeleteStage(ctx context.Context, sessionID string, name string) (*models.Document, error) {
	doc, err := s.GetDocument(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, ok := doc.Stages[name]; !ok {
		return nil, apperrors.ErrNotFound
	}

	delete(doc.Stages, name)
	order := doc.StageOrder[:0]
	for _, n := range doc.StageOrder {
		if n != name {
			order = append(order, n)
		}
	}
	doc.StageOrder = order

	if err := s.repo.PutStages(ctx, sessionID, doc.Stages, doc.StageOrder, doc.Revision); err != nil {
		return nil, err
	}

	return s.GetDocument(ctx, sessionID)
}

func (s *assessmentService) Reset(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

func (s *assessmentService) Totals(ctx context.Context, sessionID string) (models.TotalsReport, []models.UnitMismatch, error) {
	doc, err := s.GetDocument(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	report, warnings := Aggregate(doc)
	if len(warnings) > 0 {
		s.logger.Warn("Unit mismatches during aggregation",
			zap.String("session_id", sessionID),
			zap.Int("count", len(warnings)))
	}

	return report, warnings, nil
}

func (s *assessmentService) Export(ctx context.Context, sessionID string) ([]ExportRow, error) {
	doc, err := s.GetDocument(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return ExportRows(doc), nil
}
