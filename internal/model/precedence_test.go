package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteTypePrecedence(t *testing.T) {
	assert.Equal(t, 100, NoteTypePrecedence("Pathology"))
	assert.Equal(t, 100, NoteTypePrecedence("PathologyAddendum"))
	assert.Equal(t, 70, NoteTypePrecedence("OncologyConsult"))
	assert.Equal(t, 40, NoteTypePrecedence("Radiology"))
	assert.Equal(t, 30, NoteTypePrecedence("ProgressNote"))
	assert.Equal(t, 0, NoteTypePrecedence("Unknown"))
	assert.Equal(t, 0, NoteTypePrecedence(""))
	assert.Equal(t, 0, NoteTypePrecedence("DischargeSummary"))

	// pathology always outranks imaging
	assert.Greater(t, NoteTypePrecedence("Pathology"), NoteTypePrecedence("Radiology"))
}

func TestConfidenceBucket(t *testing.T) {
	tests := []struct {
		noteType string
		want     string
	}{
		{"PathologyAddendum", "addendum"},
		{"Addendum", "addendum"},
		{"Pathology", "pathology"},
		{"SurgicalPathology", "pathology"},
		{"OncologyConsult", "consult"},
		{"Radiology", "radiology"},
		{"ProgressNote", "unknown"},
		{"Unknown", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.noteType, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfidenceBucket(tt.noteType))
		})
	}
}

func TestPatientRecordColumn(t *testing.T) {
	p := PatientRecord{
		PatientID: "p1",
		Values: map[string]string{
			"er_status": "Positive",
			"grade":     "2",
		},
		ERConfidence:    "pathology",
		HER2FinalStatus: "Negative",
		HER2Confidence:  "fish",
	}

	assert.Equal(t, "p1", p.Column("patient_id"))
	assert.Equal(t, "Positive", p.Column("er_status"))
	assert.Equal(t, "2", p.Column("grade"))
	assert.Equal(t, "pathology", p.Column("er_confidence"))
	assert.Equal(t, "Negative", p.Column("her2_final_status"))
	assert.Equal(t, "fish", p.Column("her2_confidence"))
	assert.Equal(t, "", p.Column("pr_status"))
	assert.False(t, p.IsEmpty())
	assert.True(t, (&PatientRecord{}).IsEmpty())
}

func TestNoteRecordFieldAccessors(t *testing.T) {
	var r NoteRecord
	for _, f := range BaseFields {
		r.SetField(f, "x")
		assert.Equal(t, "x", r.Field(f), f)
	}
	r.SetField("bogus", "x")
	assert.Equal(t, "", r.Field("bogus"))
}
