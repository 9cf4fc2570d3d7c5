package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
	"github.com/verdantmetrics/lca-engine/pkg/database"
	"github.com/verdantmetrics/lca-engine/pkg/models"
)

// DocumentRepository provides data access for session LCA documents.
//
// Get never reports absence: a missing document is created empty and
// returned, so callers only ever see "empty but present". PutStages replaces
// the whole stages mapping (callers read-modify-write) and is guarded by a
// revision counter - a put whose expected revision no longer matches the
// stored one fails with apperrors.ErrConflict instead of silently losing a
// concurrent edit.
type DocumentRepository interface {
	Get(ctx context.Context, sessionID string) (*models.Document, error)
	PutStages(ctx context.Context, sessionID string, stages map[string]models.Stage, order []string, expectedRevision int64) error
	Delete(ctx context.Context, sessionID string) error
}

// documentRepository implements DocumentRepository using PostgreSQL.
type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

var _ DocumentRepository = (*documentRepository)(nil)

func (r *documentRepository) Get(ctx context.Context, sessionID string) (*models.Document, error) {
	insert := `
		INSERT INTO lca_documents (session_id, schema_version, stages, stage_order, revision)
		VALUES ($1, $2, '{}'::jsonb, '[]'::jsonb, 0)
		ON CONFLICT (session_id) DO NOTHING`

	if _, err := r.db.Pool.Exec(ctx, insert, sessionID, models.SchemaVersionCurrent); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	query := `
		SELECT session_id, schema_version, stages, stage_order, revision, created_at, updated_at
		FROM lca_documents
		WHERE session_id = $1`

	row := r.db.Pool.QueryRow(ctx, query, sessionID)
	return scanDocumentRow(row)
}

func (r *documentRepository) PutStages(ctx context.Context, sessionID string, stages map[string]models.Stage, order []string, expectedRevision int64) error {
	if stages == nil {
		stages = make(map[string]models.Stage)
	}
	if order == nil {
		order = []string{}
	}

	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal stage order: %w", err)
	}

	query := `
		INSERT INTO lca_documents (session_id, schema_version, stages, stage_order, revision)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (session_id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
		    stages = EXCLUDED.stages,
		    stage_order = EXCLUDED.stage_order,
		    revision = lca_documents.revision + 1,
		    updated_at = now()
		WHERE lca_documents.revision = $5`

	result, err := r.db.Pool.Exec(ctx, query,
		sessionID, models.SchemaVersionCurrent, stagesJSON, orderJSON, expectedRevision)
	if err != nil {
		return fmt.Errorf("failed to put stages: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

func (r *documentRepository) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM lca_documents WHERE session_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanDocumentRow(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	var stagesJSON, orderJSON []byte

	err := row.Scan(
		&doc.SessionID, &doc.SchemaVersion, &stagesJSON, &orderJSON,
		&doc.Revision, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if err := json.Unmarshal(orderJSON, &doc.StageOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stage order: %w", err)
	}

	switch doc.SchemaVersion {
	case models.SchemaVersionLegacy:
		// Legacy rows store outputs-bearing stages. Decode the old shape and
		// convert; the service layer persists the upgraded document.
		legacy := make(map[string]models.LegacyStage)
		if err := json.Unmarshal(stagesJSON, &legacy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal legacy stages: %w", err)
		}
		doc.Stages = models.MigrateLegacyStages(legacy)
	default:
		doc.Stages = make(map[string]models.Stage)
		if err := json.Unmarshal(stagesJSON, &doc.Stages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stages: %w", err)
		}
	}

	return &doc, nil
}
