package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
	"github.com/verdantmetrics/lca-engine/pkg/models"
)

// ============================================================================
// Mock Implementations for Assessment Service Tests
// ============================================================================

type storedDoc struct {
	schemaVersion int
	stages        map[string]models.Stage
	legacyStages  map[string]models.LegacyStage
	order         []string
	revision      int64
}

type mockDocumentRepo struct {
	docs map[string]*storedDoc

	getErr error
	putErr error

	putCalls int
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]*storedDoc)}
}

func (m *mockDocumentRepo) Get(ctx context.Context, sessionID string) (*models.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	stored, ok := m.docs[sessionID]
	if !ok {
		stored = &storedDoc{
			schemaVersion: models.SchemaVersionCurrent,
			stages:        make(map[string]models.Stage),
		}
		m.docs[sessionID] = stored
	}

	doc := &models.Document{
		SessionID:     sessionID,
		SchemaVersion: stored.schemaVersion,
		StageOrder:    append([]string(nil), stored.order...),
		Revision:      stored.revision,
	}
	if stored.schemaVersion == models.SchemaVersionLegacy {
		doc.Stages = models.MigrateLegacyStages(stored.legacyStages)
	} else {
		doc.Stages = deepCopyStages(stored.stages)
	}
	return doc, nil
}

func (m *mockDocumentRepo) PutStages(ctx context.Context, sessionID string, stages map[string]models.Stage, order []string, expectedRevision int64) error {
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	stored, ok := m.docs[sessionID]
	if !ok {
		stored = &storedDoc{schemaVersion: models.SchemaVersionCurrent}
		m.docs[sessionID] = stored
	}
	if stored.revision != expectedRevision {
		return apperrors.ErrConflict
	}
	stored.schemaVersion = models.SchemaVersionCurrent
	stored.legacyStages = nil
	stored.stages = deepCopyStages(stages)
	stored.order = append([]string(nil), order...)
	stored.revision++
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, sessionID string) error {
	if _, ok := m.docs[sessionID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.docs, sessionID)
	return nil
}

func deepCopyStages(in map[string]models.Stage) map[string]models.Stage {
	out := make(map[string]models.Stage, len(in))
	raw, _ := json.Marshal(in)
	_ = json.Unmarshal(raw, &out)
	return out
}

func validDraft(name string) models.StageDraft {
	return models.StageDraft{
		Name: name,
		Inputs: []models.InputDraft{
			{Name: "steel", FunctionalUnit: "kg", Quantity: 10, Impacts: []models.ImpactDraft{
				{Name: "CO2e", FunctionalUnit: "kg", Quantity: 2.0},
			}},
		},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestSaveStage_PersistsValidStage(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	doc, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)

	require.Contains(t, doc.Stages, "Manufacturing")
	assert.Equal(t, []string{"Manufacturing"}, doc.StageOrder)
	assert.Equal(t, int64(1), doc.Revision)
}

func TestSaveStage_ValidationRejectionLeavesStoreUntouched(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", models.StageDraft{})
	assert.ErrorIs(t, err, apperrors.ErrEmptyStageName)

	_, err = svc.SaveStage(ctx, "s1", models.StageDraft{Name: "Transport"})
	assert.ErrorIs(t, err, apperrors.ErrNoValidInputs)

	assert.Zero(t, repo.putCalls)
}

func TestSaveStage_OverwritesExistingStage(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Transport"))
	require.NoError(t, err)

	replacement := models.StageDraft{
		Name: "Transport",
		Inputs: []models.InputDraft{
			{Name: "diesel", FunctionalUnit: "L", Quantity: 50, Impacts: []models.ImpactDraft{
				{Name: "CO2e", FunctionalUnit: "kg", Quantity: 2.7},
			}},
		},
	}
	doc, err := svc.SaveStage(ctx, "s1", replacement)
	require.NoError(t, err)

	// the old inputs are gone, fully replaced
	require.Len(t, doc.Stages["Transport"].Inputs, 1)
	assert.Equal(t, "diesel", doc.Stages["Transport"].Inputs[0].Name)
	assert.Equal(t, []string{"Transport"}, doc.StageOrder)
}

func TestSaveStage_PreservesOtherStages(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)
	doc, err := svc.SaveStage(ctx, "s1", validDraft("Transport"))
	require.NoError(t, err)

	assert.Len(t, doc.Stages, 2)
	assert.Equal(t, []string{"Manufacturing", "Transport"}, doc.StageOrder)
}

func TestDeleteStage(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)
	_, err = svc.SaveStage(ctx, "s1", validDraft("Transport"))
	require.NoError(t, err)

	doc, err := svc.DeleteStage(ctx, "s1", "Manufacturing")
	require.NoError(t, err)

	assert.NotContains(t, doc.Stages, "Manufacturing")
	assert.Equal(t, []string{"Transport"}, doc.StageOrder)
}

func TestDeleteStage_MissingStage(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())

	_, err := svc.DeleteStage(context.Background(), "s1", "Nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetDocument_MigratesLegacySchema(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["s1"] = &storedDoc{
		schemaVersion: models.SchemaVersionLegacy,
		legacyStages: map[string]models.LegacyStage{
			"Transport": {
				Name:    "Transport",
				Inputs:  []models.LegacyFlow{{Name: "diesel", FunctionalUnit: "L", Quantity: 50}},
				Outputs: []models.LegacyFlow{{Name: "exhaust", FunctionalUnit: "kg", Quantity: 130}},
			},
		},
		order:    []string{"Transport"},
		revision: 2,
	}
	svc := NewAssessmentService(repo, zap.NewNop())

	doc, err := svc.GetDocument(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, models.SchemaVersionCurrent, doc.SchemaVersion)
	require.Contains(t, doc.Stages, "Transport")
	assert.Equal(t, "diesel", doc.Stages["Transport"].Inputs[0].Name)
	// migration was written back exactly once
	assert.Equal(t, 1, repo.putCalls)
}

func TestTotals(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)

	report, warnings, err := svc.Totals(ctx, "s1")
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.Equal(t, models.Total{Total: 20, Unit: "kg"}, report["CO2e"])
}

func TestExport(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)

	rows, err := svc.Export(ctx, "s1")
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, ExportRow{
		Stage:          "Manufacturing",
		Input:          "steel",
		Impact:         "CO2e",
		FunctionalUnit: "kg",
		Quantity:       10,
		ImpactFactor:   2.0,
		ImpactUnit:     "kg",
	}, rows[0])
}

func TestReset(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewAssessmentService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveStage(ctx, "s1", validDraft("Manufacturing"))
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, "s1"))

	doc, err := svc.GetDocument(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, doc.Stages)
}
