package model

// PatientColumnsV1 is the exported patient schema: a de facto wire format
// consumed by downstream tooling. Name set and order must not change within
// v1.
var PatientColumnsV1 = []string{
	"patient_id",

	"er_status",
	"er_percent",
	"er_confidence",

	"pr_status",
	"pr_percent",
	"pr_confidence",

	"her2_ihc_score",
	"her2_fish",
	"her2_final_status",
	"her2_confidence",

	"ki67_percent",
	"ki67_confidence",

	"histology",
	"histology_confidence",
	"grade",

	"stage_clinical",
	"stage_path",
}

// SourceRef identifies the note a patient-level field value was taken from.
type SourceRef struct {
	NoteID   string `json:"note_id"`
	NoteType string `json:"note_type,omitempty"`
	NoteDate string `json:"note_date,omitempty"`
}

// PatientRecord is the aggregated phenotype for one patient. Values holds
// the chosen base-field values, Sources the per-field provenance.
type PatientRecord struct {
	PatientID string `json:"patient_id"`

	Values  map[string]string    `json:"values,omitempty"`
	Sources map[string]SourceRef `json:"sources,omitempty"`

	ERConfidence        string `json:"er_confidence,omitempty"`
	PRConfidence        string `json:"pr_confidence,omitempty"`
	Ki67Confidence      string `json:"ki67_confidence,omitempty"`
	HistologyConfidence string `json:"histology_confidence,omitempty"`

	HER2FinalStatus string `json:"her2_final_status,omitempty"`
	// HER2Confidence names the signal the final status came from:
	// fish, ihc, or explicit.
	HER2Confidence string `json:"her2_confidence,omitempty"`
}

// IsEmpty reports whether aggregation produced nothing (no notes, or notes
// without a patient id).
func (p *PatientRecord) IsEmpty() bool {
	return p.PatientID == ""
}

// Column returns the record's value for an exported v1 column name.
func (p *PatientRecord) Column(name string) string {
	switch name {
	case "patient_id":
		return p.PatientID
	case "er_confidence":
		return p.ERConfidence
	case "pr_confidence":
		return p.PRConfidence
	case "ki67_confidence":
		return p.Ki67Confidence
	case "histology_confidence":
		return p.HistologyConfidence
	case "her2_final_status":
		return p.HER2FinalStatus
	case "her2_confidence":
		return p.HER2Confidence
	default:
		return p.Values[name]
	}
}
