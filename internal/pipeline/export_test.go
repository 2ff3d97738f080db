package pipeline

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/phenotype-cli/internal/model"
)

func samplePatient() model.PatientRecord {
	return model.PatientRecord{
		PatientID: "p1",
		Values: map[string]string{
			"er_status":      "Positive",
			"er_percent":     "90",
			"her2_ihc_score": "2+",
			"her2_fish":      "Not amplified",
			"histology":      "IDC",
			"grade":          "2",
			"stage_path":     "IIA",
		},
		ERConfidence:    "pathology",
		HER2FinalStatus: "Negative",
		HER2Confidence:  "fish",
	}
}

func TestWritePatientCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePatientCSV(&buf, []model.PatientRecord{samplePatient()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// header is the frozen v1 schema
	assert.Equal(t, model.PatientColumnsV1, rows[0])

	byCol := make(map[string]string, len(rows[0]))
	for i, col := range rows[0] {
		byCol[col] = rows[1][i]
	}
	assert.Equal(t, "p1", byCol["patient_id"])
	assert.Equal(t, "Positive", byCol["er_status"])
	assert.Equal(t, "90", byCol["er_percent"])
	assert.Equal(t, "pathology", byCol["er_confidence"])
	assert.Equal(t, "Negative", byCol["her2_final_status"])
	assert.Equal(t, "fish", byCol["her2_confidence"])
	assert.Equal(t, "", byCol["pr_status"])
}

func TestWriteEvidenceCSV(t *testing.T) {
	var buf bytes.Buffer
	evidence := []model.Evidence{{
		PatientID:  "p1",
		NoteID:     "n1",
		NoteType:   "Pathology",
		Field:      "er_status",
		Value:      "Positive",
		Start:      10,
		End:        22,
		Snippet:    "ER: Positive",
		Label:      model.LabelERPos,
		Confidence: 0.85,
	}}
	require.NoError(t, WriteEvidenceCSV(&buf, evidence))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, evidenceColumns, rows[0])
	assert.Equal(t, "p1", rows[1][0])
	assert.Equal(t, "er_status", rows[1][4])
	assert.Equal(t, "Positive", rows[1][5])
	assert.Equal(t, "10", rows[1][6])
	assert.Equal(t, "0.85", rows[1][10])
	assert.Equal(t, "false", rows[1][11])
}

func TestWritePatientXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.xlsx")
	require.NoError(t, WritePatientXLSX(path, []model.PatientRecord{samplePatient()}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "patients", sheet.Name)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "patient_id", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "p1", sheet.Rows[1].Cells[0].Value)
}
