package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/phenotype-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun() *model.RunResult {
	return &model.RunResult{
		RunID:     "run-1",
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Notes: []model.NoteRecord{{
			PatientID: "p1",
			NoteID:    "n1.txt",
			NoteType:  "Pathology",
			Seq:       0,
			ERStatus:  "Positive",
			ERPercent: "90",
		}},
		Evidence: []model.Evidence{{
			PatientID:  "p1",
			NoteID:     "n1.txt",
			NoteType:   "Pathology",
			Field:      "er_status",
			Value:      "Positive",
			Start:      0,
			End:        12,
			Snippet:    "ER: Positive",
			Label:      model.LabelERPos,
			Confidence: 0.85,
		}},
		Patients: []model.PatientRecord{{
			PatientID:    "p1",
			Values:       map[string]string{"er_status": "Positive", "er_percent": "90"},
			Sources:      map[string]model.SourceRef{"er_status": {NoteID: "n1.txt", NoteType: "Pathology"}},
			ERConfidence: "pathology",
		}},
	}
}

func TestSQLiteSaveAndListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun()))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, model.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].NoteCount)
	assert.Equal(t, 1, runs[0].PatientCount)
}

func TestSQLiteGetPatients(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun()))

	patients, err := s.GetPatients(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "p1", patients[0].PatientID)
	assert.Equal(t, "Positive", patients[0].Values["er_status"])
	assert.Equal(t, "pathology", patients[0].ERConfidence)
	assert.Equal(t, "n1.txt", patients[0].Sources["er_status"].NoteID)

	patients, err = s.GetPatients(ctx, "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestSQLiteGetEvidence(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun()))

	evidence, err := s.GetEvidence(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, "er_status", evidence[0].Field)
	assert.Equal(t, "Positive", evidence[0].Value)
	assert.InDelta(t, 0.85, evidence[0].Confidence, 0.001)
}

// Rows written under the legacy "entity" key still load; rows with no field
// key at all are dropped.
func TestSQLiteGetEvidenceLegacyRows(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun()))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (id, run_id, row) VALUES (?, ?, ?)`,
		"legacy-1", "run-1",
		`{"patient_id":"p1","note_id":"n1.txt","entity":"ki67_percent","value":35.0,"confidence":0.8}`,
	)
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evidence (id, run_id, row) VALUES (?, ?, ?)`,
		"broken-1", "run-1",
		`{"patient_id":"p1","value":"Positive"}`,
	)
	require.NoError(t, err)

	evidence, err := s.GetEvidence(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, evidence, 2)

	var legacy *model.Evidence
	for i := range evidence {
		if evidence[i].Field == "ki67_percent" {
			legacy = &evidence[i]
		}
	}
	require.NotNil(t, legacy, "legacy entity row should load")
	assert.Equal(t, "35", legacy.Value)
	assert.InDelta(t, 0.8, legacy.Confidence, 0.001)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}
