package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
	"github.com/verdantmetrics/lca-engine/pkg/models"
	"github.com/verdantmetrics/lca-engine/pkg/testhelpers"
)

func testRepo(t *testing.T) DocumentRepository {
	t.Helper()
	tdb := testhelpers.GetTestDB(t)
	return NewDocumentRepository(tdb.DB)
}

func TestGet_CreatesEmptyDocument(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	sessionID := uuid.NewString()

	doc, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, sessionID, doc.SessionID)
	assert.Equal(t, models.SchemaVersionCurrent, doc.SchemaVersion)
	assert.Empty(t, doc.Stages)
	assert.Empty(t, doc.StageOrder)
	assert.Equal(t, int64(0), doc.Revision)

	// a second get resolves to the same (still empty) document
	again, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, doc.CreatedAt, again.CreatedAt)
}

func TestPutStages_RoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	sessionID := uuid.NewString()

	_, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	stages := map[string]models.Stage{
		"Transport": {
			Name: "Transport",
			Inputs: []models.Input{
				{Name: "diesel", FunctionalUnit: "L", Quantity: 50, Impacts: []models.Impact{
					{Name: "CO2e", FunctionalUnit: "kg", Quantity: 2.7},
				}},
			},
		},
	}

	err = repo.PutStages(ctx, sessionID, stages, []string{"Transport"}, 0)
	require.NoError(t, err)

	doc, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), doc.Revision)
	assert.Equal(t, []string{"Transport"}, doc.StageOrder)
	assert.Equal(t, stages, doc.Stages)
}

func TestPutStages_RevisionConflict(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	sessionID := uuid.NewString()

	_, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	stages := map[string]models.Stage{"A": {Name: "A"}}
	require.NoError(t, repo.PutStages(ctx, sessionID, stages, []string{"A"}, 0))

	// a concurrent writer still holding revision 0 loses
	err = repo.PutStages(ctx, sessionID, stages, []string{"A"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// the current revision wins
	err = repo.PutStages(ctx, sessionID, stages, []string{"A"}, 1)
	assert.NoError(t, err)
}

func TestPutStages_UpsertWithoutPriorGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	sessionID := uuid.NewString()

	err := repo.PutStages(ctx, sessionID, map[string]models.Stage{"A": {Name: "A"}}, []string{"A"}, 0)
	require.NoError(t, err)

	doc, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Revision)
	assert.Contains(t, doc.Stages, "A")
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	sessionID := uuid.NewString()

	_, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, sessionID))

	err = repo.Delete(ctx, sessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGet_MigratesLegacyRow(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewDocumentRepository(tdb.DB)
	ctx := context.Background()
	sessionID := uuid.NewString()

	legacyStages := `{
		"Transport": {
			"name": "Transport",
			"inputs": [{"name": "diesel", "functional_unit": "L", "quantity": 50}],
			"outputs": [{"name": "exhaust", "functional_unit": "kg", "quantity": 130}]
		}
	}`
	_, err := tdb.DB.Pool.Exec(ctx, `
		INSERT INTO lca_documents (session_id, schema_version, stages, stage_order, revision)
		VALUES ($1, $2, $3, '["Transport"]'::jsonb, 3)`,
		sessionID, models.SchemaVersionLegacy, legacyStages)
	require.NoError(t, err)

	doc, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, models.SchemaVersionLegacy, doc.SchemaVersion)
	require.Contains(t, doc.Stages, "Transport")
	require.Len(t, doc.Stages["Transport"].Inputs, 1)
	assert.Equal(t, "diesel", doc.Stages["Transport"].Inputs[0].Name)
	assert.Empty(t, doc.Stages["Transport"].Inputs[0].Impacts)
}
