package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/phenotype-cli/internal/model"
	"github.com/sells-group/phenotype-cli/internal/recognize"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testMeta() NoteMeta {
	return NoteMeta{
		PatientID: "p1",
		NoteID:    "n1",
		NoteDate:  "2024-03-01",
		NoteType:  "Pathology",
	}
}

func extractText(t *testing.T, text string) (model.NoteRecord, []model.Evidence) {
	t.Helper()
	r := recognize.New()
	defer r.Close()
	cleaned := CleanText(text)
	return Extract(cleaned, testMeta(), r.Recognize(cleaned))
}

func TestExtractPathologyNote(t *testing.T) {
	text := "ER: Positive (90%). PR: Negative. HER2: 2+. FISH: Not amplified. " +
		"Ki-67: 35%. Invasive ductal carcinoma, grade 2. Pathologic Stage IIA."

	rec, evidence := extractText(t, text)

	assert.Equal(t, "p1", rec.PatientID)
	assert.Equal(t, "Positive", rec.ERStatus)
	assert.Equal(t, "90", rec.ERPercent)
	assert.Equal(t, "Negative", rec.PRStatus)
	assert.Equal(t, "2+", rec.HER2IHCScore)
	assert.Equal(t, "Not amplified", rec.HER2FISH)
	// FISH outranks the equivocal IHC score
	assert.Equal(t, "Negative", rec.HER2Status)
	assert.Equal(t, "35", rec.Ki67Percent)
	assert.Equal(t, "IDC", rec.Histology)
	assert.Equal(t, "2", rec.Grade)
	assert.Equal(t, "IIA", rec.StagePath)
	assert.Equal(t, "", rec.StageClinical)

	require.NotEmpty(t, evidence)
	byField := make(map[string][]model.Evidence)
	for _, e := range evidence {
		assert.Equal(t, "p1", e.PatientID)
		assert.Equal(t, "n1", e.NoteID)
		byField[e.Field] = append(byField[e.Field], e)
	}
	require.Contains(t, byField, model.FieldERStatus)
	assert.Equal(t, "Positive", byField[model.FieldERStatus][0].Value)
	assert.Contains(t, byField[model.FieldERStatus][0].Snippet, "ER: Positive")
	require.Contains(t, byField, model.FieldHER2IHCScore)
	assert.Equal(t, "2+", byField[model.FieldHER2IHCScore][0].Value)
	require.Contains(t, byField, model.FieldHER2FISH)
	assert.Equal(t, "Not amplified", byField[model.FieldHER2FISH][0].Value)
}

func TestExtractFirstValueWins(t *testing.T) {
	rec, _ := extractText(t, "ER: Positive. Repeat stain ER: Negative.")
	assert.Equal(t, "Positive", rec.ERStatus)
}

func TestExtractExplicitHER2(t *testing.T) {
	rec, evidence := extractText(t, "HER2 negative by report.")
	assert.Equal(t, "Negative", rec.HER2Status)
	assert.Equal(t, "", rec.HER2IHCScore)

	// explicit-status evidence lands under her2_status, not the ihc field
	var fields []string
	for _, e := range evidence {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, model.FieldHER2Status)
	assert.NotContains(t, fields, model.FieldHER2IHCScore)
}

func TestExtractNegatedMentionFlagsEvidence(t *testing.T) {
	rec, evidence := extractText(t, "No evidence of DCIS.")

	// the field still fills; the evidence carries the negation flag
	assert.Equal(t, "DCIS", rec.Histology)
	require.Len(t, evidence, 1)
	assert.True(t, evidence[0].IsNegated)
}

// The ER/PR status safety net sets the field from a direct keyword match
// without emitting evidence.
func TestExtractStatusFallbackWithoutEvidence(t *testing.T) {
	rec, evidence := Extract("er  positive tumor cells", testMeta(), nil)
	assert.Equal(t, "Positive", rec.ERStatus)
	assert.Empty(t, evidence)
}

func TestExtractPercentFallback(t *testing.T) {
	rec, _ := Extract("Estrogen receptor staining in 85% of cells", testMeta(), nil)
	assert.Equal(t, "85", rec.ERPercent)

	// out-of-range percent is rejected
	rec, _ = Extract("ER 150%", testMeta(), nil)
	assert.Equal(t, "", rec.ERPercent)

	// a bare number without a percent sign never fills the field
	rec, _ = Extract("ER Allred score 85", testMeta(), nil)
	assert.Equal(t, "", rec.ERPercent)
}

func TestExtractGenericStageFillsPathFirst(t *testing.T) {
	rec, _ := extractText(t, "Stage IIB disease.")
	assert.Equal(t, "IIB", rec.StagePath)
	assert.Equal(t, "", rec.StageClinical)
}

func TestExtractEmptyNote(t *testing.T) {
	rec, evidence := extractText(t, "Patient doing well. Follow up in 3 months.")
	assert.Equal(t, "", rec.ERStatus)
	assert.Equal(t, "", rec.Histology)
	assert.Equal(t, "", rec.HER2Status)
	assert.Empty(t, evidence)
}
