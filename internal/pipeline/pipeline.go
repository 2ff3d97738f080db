// Package pipeline implements the phenotyping engine: per-note extraction,
// evidence support lookup, and patient-level aggregation, plus the batch
// runner that ties them together.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/phenotype-cli/internal/model"
	"github.com/sells-group/phenotype-cli/internal/recognize"
)

// Pipeline runs extraction and aggregation over a batch of notes. The
// recognizer handle is injected at construction and owned by the caller.
type Pipeline struct {
	rec         recognize.Recognizer
	concurrency int
}

// New creates a Pipeline. Concurrency below 1 runs notes sequentially.
func New(rec recognize.Recognizer, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{rec: rec, concurrency: concurrency}
}

// ExtractNote runs recognition and extraction for a single note.
func (p *Pipeline) ExtractNote(text string, meta NoteMeta) (model.NoteRecord, []model.Evidence) {
	cleaned := CleanText(text)
	mentions := p.rec.Recognize(cleaned)
	return Extract(cleaned, meta, mentions)
}

// Run extracts every note, then aggregates per patient. Notes are
// processed in parallel but results are collected by intake index, so the
// note order fed to aggregation is exactly the input order: tie-breaking
// between equal-precedence, equal-date notes depends on it.
func (p *Pipeline) Run(ctx context.Context, notes []NoteFile, mapping *Mapping) (*model.RunResult, error) {
	result := &model.RunResult{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}

	records := make([]model.NoteRecord, len(notes))
	evidence := make([][]model.Evidence, len(notes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range notes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			note := notes[i]
			entry := mapping.Resolve(note.NoteID, note.Name)
			meta := NoteMeta{
				PatientID: entry.PatientID,
				NoteID:    note.NoteID,
				NoteDate:  entry.NoteDate,
				NoteType:  entry.NoteType,
				Seq:       i,
			}
			records[i], evidence[i] = p.ExtractNote(note.Text, meta)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Notes = records
	for _, evs := range evidence {
		result.Evidence = append(result.Evidence, evs...)
	}

	// Group notes per patient, preserving intake order within and across
	// groups.
	var patientOrder []string
	byPatient := make(map[string][]model.NoteRecord)
	for _, rec := range records {
		if rec.PatientID == "" {
			zap.L().Warn("pipeline: note has no patient mapping",
				zap.String("note_id", rec.NoteID),
			)
			continue
		}
		if _, seen := byPatient[rec.PatientID]; !seen {
			patientOrder = append(patientOrder, rec.PatientID)
		}
		byPatient[rec.PatientID] = append(byPatient[rec.PatientID], rec)
	}

	for _, pid := range patientOrder {
		patient := AggregatePatient(byPatient[pid], result.Evidence)
		if !patient.IsEmpty() {
			result.Patients = append(result.Patients, patient)
		}
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", result.RunID),
		zap.Int("notes", len(result.Notes)),
		zap.Int("evidence", len(result.Evidence)),
		zap.Int("patients", len(result.Patients)),
	)
	return result, nil
}
