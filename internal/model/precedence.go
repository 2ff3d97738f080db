package model

import "strings"

// noteTypePrecedence ranks document types by authority for biomarker
// fields. Higher wins. Unlisted types score 0.
var noteTypePrecedence = map[string]int{
	// pathology and addenda dominate tumor biology fields
	"Pathology":         100,
	"SurgicalPathology": 100,
	"PathologyAddendum": 100,
	"Addendum":          100,

	// clinician summary, usually reflects pathology but can be hedgier
	"OncologyConsult": 70,

	// imaging is lowest authority for biomarkers
	"Radiology": 40,

	"ProgressNote": 30,

	"Unknown": 0,
	"":        0,
}

// NoteTypePrecedence returns the authority score for a note type.
func NoteTypePrecedence(noteType string) int {
	return noteTypePrecedence[noteType]
}

// ConfidenceBucket maps a raw note-type string onto the stable v1
// confidence buckets: addendum, pathology, consult, radiology, unknown.
func ConfidenceBucket(noteType string) string {
	if noteType == "" {
		return "unknown"
	}
	nt := strings.ToLower(noteType)

	switch {
	case strings.Contains(nt, "addendum"):
		return "addendum"
	case strings.Contains(nt, "path"): // Pathology / SurgicalPathology
		return "pathology"
	case strings.Contains(nt, "oncology"), strings.Contains(nt, "consult"):
		return "consult"
	case strings.Contains(nt, "radio"):
		return "radiology"
	}
	return "unknown"
}
