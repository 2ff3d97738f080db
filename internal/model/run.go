package model

import "time"

// RunStatus is the lifecycle state of a stored pipeline run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunResult is the output of one batch pipeline run: every note-level
// record, the full evidence list, and the aggregated patient records.
type RunResult struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Notes     []NoteRecord    `json:"notes"`
	Evidence  []Evidence      `json:"evidence"`
	Patients  []PatientRecord `json:"patients"`
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID           string    `json:"id"`
	Status       RunStatus `json:"status"`
	NoteCount    int       `json:"note_count"`
	PatientCount int       `json:"patient_count"`
	CreatedAt    time.Time `json:"created_at"`
}
