// Package store persists pipeline runs, their note-level records, the
// evidence audit trail, and aggregated patient records.
package store

import (
	"context"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// Store defines the persistence interface for phenotyping runs.
type Store interface {
	SaveRun(ctx context.Context, result *model.RunResult) error
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
	GetPatients(ctx context.Context, runID string) ([]model.PatientRecord, error)
	GetEvidence(ctx context.Context, runID string) ([]model.Evidence, error)

	Migrate(ctx context.Context) error
	Close() error
}
