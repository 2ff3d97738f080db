package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Status is a canonical biomarker status value.
type Status string

const (
	StatusPositive  Status = "Positive"
	StatusNegative  Status = "Negative"
	StatusEquivocal Status = "Equivocal"
	StatusUnknown   Status = "Unknown"
)

// DefaultConfidence is the evidence confidence used when a rule does not
// set its own.
const DefaultConfidence = 0.70

// Evidence is one provenance-tagged supporting mention for a field value.
// Immutable once created.
type Evidence struct {
	PatientID string `json:"patient_id"`
	NoteID    string `json:"note_id"`
	NoteDate  string `json:"note_date,omitempty"`
	NoteType  string `json:"note_type,omitempty"`

	Field string `json:"field"`
	Value string `json:"value"`

	Start   int    `json:"start"`
	End     int    `json:"end"`
	Snippet string `json:"snippet"`

	// Label is the recognizer rule category that matched.
	Label Label `json:"label"`

	Confidence float64 `json:"confidence"`

	IsNegated   bool `json:"is_negated"`
	IsUncertain bool `json:"is_uncertain"`
}

// CanonicalValue normalizes a value for evidence matching so note-record
// fields and evidence rows compare equal. Integral floats collapse to their
// integer string form ("35.0" would otherwise never match "35"); everything
// else is trimmed.
func CanonicalValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return CanonicalValue(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", x))
	}
}

// DecodeEvidence reconstructs an Evidence from an external row, migrating
// rows written before "field" became the canonical key (legacy rows carry
// "entity" instead). Rows with neither key are dropped, not raised; the
// drop is logged so the leniency is visible.
func DecodeEvidence(row map[string]any) (Evidence, bool) {
	field, _ := row["field"].(string)
	if field == "" {
		field, _ = row["entity"].(string)
	}
	if field == "" {
		zap.L().Warn("evidence: dropping row with no field key",
			zap.Any("note_id", row["note_id"]),
			zap.Any("label", row["label"]),
		)
		return Evidence{}, false
	}

	e := Evidence{
		PatientID:  asString(row["patient_id"]),
		NoteID:     asString(row["note_id"]),
		NoteDate:   asString(row["note_date"]),
		NoteType:   asString(row["note_type"]),
		Field:      field,
		Value:      CanonicalValue(row["value"]),
		Snippet:    asString(row["snippet"]),
		Label:      Label(asString(row["label"])),
		Confidence: DefaultConfidence,
	}
	if f, ok := asFloat(row["confidence"]); ok {
		e.Confidence = f
	}
	if n, ok := asFloat(row["start"]); ok {
		e.Start = int(n)
	}
	if n, ok := asFloat(row["end"]); ok {
		e.End = int(n)
	}
	e.IsNegated, _ = row["is_negated"].(bool)
	e.IsUncertain, _ = row["is_uncertain"].(bool)
	return e, true
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
