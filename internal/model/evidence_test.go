package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string trimmed", "  35 ", "35"},
		{"integral float", 35.0, "35"},
		{"fractional float", 12.5, "12.5"},
		{"float32", float32(90), "90"},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"bool falls through", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalValue(tt.in))
		})
	}
}

func TestDecodeEvidence(t *testing.T) {
	row := map[string]any{
		"patient_id": "p1",
		"note_id":    "n1",
		"field":      "er_status",
		"value":      "Positive",
		"start":      float64(10),
		"end":        float64(22),
		"snippet":    "ER: Positive",
		"label":      "ER_POS",
		"confidence": 0.85,
		"is_negated": false,
	}

	e, ok := DecodeEvidence(row)
	require.True(t, ok)
	assert.Equal(t, "p1", e.PatientID)
	assert.Equal(t, "er_status", e.Field)
	assert.Equal(t, "Positive", e.Value)
	assert.Equal(t, 10, e.Start)
	assert.Equal(t, 22, e.End)
	assert.Equal(t, Label("ER_POS"), e.Label)
	assert.InDelta(t, 0.85, e.Confidence, 0.001)
	assert.False(t, e.IsNegated)
}

func TestDecodeEvidenceLegacyEntityKey(t *testing.T) {
	row := map[string]any{
		"patient_id": "p1",
		"entity":     "ki67_percent",
		"value":      35.0,
	}

	e, ok := DecodeEvidence(row)
	require.True(t, ok)
	assert.Equal(t, "ki67_percent", e.Field)
	assert.Equal(t, "35", e.Value)
	assert.InDelta(t, DefaultConfidence, e.Confidence, 0.001)
}

func TestDecodeEvidenceDropsFieldlessRow(t *testing.T) {
	_, ok := DecodeEvidence(map[string]any{
		"patient_id": "p1",
		"value":      "Positive",
	})
	assert.False(t, ok)
}
