package model

// Phenotype field names. These are the wire names used by evidence rows,
// note records, and the exported patient schema.
const (
	FieldERStatus      = "er_status"
	FieldERPercent     = "er_percent"
	FieldPRStatus      = "pr_status"
	FieldPRPercent     = "pr_percent"
	FieldHER2Status    = "her2_status"
	FieldHER2IHCScore  = "her2_ihc_score"
	FieldHER2FISH      = "her2_fish"
	FieldKi67Percent   = "ki67_percent"
	FieldHistology     = "histology"
	FieldGrade         = "grade"
	FieldStageClinical = "stage_clinical"
	FieldStagePath     = "stage_path"
)

// BaseFields are the fields the aggregator selects directly from note
// records, in selection order. her2_status is derived, not selected.
var BaseFields = []string{
	FieldERStatus, FieldPRStatus,
	FieldHER2IHCScore, FieldHER2FISH,
	FieldKi67Percent, FieldHistology, FieldGrade,
	FieldStageClinical, FieldStagePath,
	FieldERPercent, FieldPRPercent,
}

// NoteRecord is the phenotype extraction result for one document. All
// values are canonical strings (see CanonicalValue); empty string means the
// note did not yield the field. Immutable once extraction returns it.
type NoteRecord struct {
	PatientID string `json:"patient_id"`
	NoteID    string `json:"note_id"`
	NoteDate  string `json:"note_date,omitempty"`
	NoteType  string `json:"note_type,omitempty"`

	// Seq is the intake order index. Ranking ties between notes of equal
	// precedence and date break on Seq, so determinism never depends on
	// sort stability.
	Seq int `json:"seq"`

	ERStatus      string `json:"er_status,omitempty"`
	ERPercent     string `json:"er_percent,omitempty"`
	PRStatus      string `json:"pr_status,omitempty"`
	PRPercent     string `json:"pr_percent,omitempty"`
	HER2Status    string `json:"her2_status,omitempty"`
	HER2IHCScore  string `json:"her2_ihc_score,omitempty"`
	HER2FISH      string `json:"her2_fish,omitempty"`
	Ki67Percent   string `json:"ki67_percent,omitempty"`
	Histology     string `json:"histology,omitempty"`
	Grade         string `json:"grade,omitempty"`
	StageClinical string `json:"stage_clinical,omitempty"`
	StagePath     string `json:"stage_path,omitempty"`
}

// Field returns the record's value for a phenotype field name, or "" for
// unknown names.
func (r *NoteRecord) Field(name string) string {
	switch name {
	case FieldERStatus:
		return r.ERStatus
	case FieldERPercent:
		return r.ERPercent
	case FieldPRStatus:
		return r.PRStatus
	case FieldPRPercent:
		return r.PRPercent
	case FieldHER2Status:
		return r.HER2Status
	case FieldHER2IHCScore:
		return r.HER2IHCScore
	case FieldHER2FISH:
		return r.HER2FISH
	case FieldKi67Percent:
		return r.Ki67Percent
	case FieldHistology:
		return r.Histology
	case FieldGrade:
		return r.Grade
	case FieldStageClinical:
		return r.StageClinical
	case FieldStagePath:
		return r.StagePath
	}
	return ""
}

// SetField writes the record's value for a phenotype field name. Unknown
// names are ignored.
func (r *NoteRecord) SetField(name, value string) {
	switch name {
	case FieldERStatus:
		r.ERStatus = value
	case FieldERPercent:
		r.ERPercent = value
	case FieldPRStatus:
		r.PRStatus = value
	case FieldPRPercent:
		r.PRPercent = value
	case FieldHER2Status:
		r.HER2Status = value
	case FieldHER2IHCScore:
		r.HER2IHCScore = value
	case FieldHER2FISH:
		r.HER2FISH = value
	case FieldKi67Percent:
		r.Ki67Percent = value
	case FieldHistology:
		r.Histology = value
	case FieldGrade:
		r.Grade = value
	case FieldStageClinical:
		r.StageClinical = value
	case FieldStagePath:
		r.StagePath = value
	}
}
