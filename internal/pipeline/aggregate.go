package pipeline

import (
	"sort"
	"time"

	"github.com/sells-group/phenotype-cli/internal/model"
	"github.com/sells-group/phenotype-cli/internal/normalize"
)

// noteDateLayouts are tried in order when parsing a caller-supplied note
// date string. Unparsable dates rank as ordinal 0.
var noteDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

func dateOrdinal(date string) int64 {
	if date == "" {
		return 0
	}
	for _, layout := range noteDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Unix() / 86400
		}
	}
	return 0
}

// rankNotes orders note records by authority: note-type precedence
// descending, date ordinal descending, then intake sequence ascending. The
// explicit sequence key makes ties deterministic without relying on sort
// stability.
func rankNotes(records []model.NoteRecord) []model.NoteRecord {
	ranked := make([]model.NoteRecord, len(records))
	copy(ranked, records)
	sort.Slice(ranked, func(i, j int) bool {
		pi, pj := model.NoteTypePrecedence(ranked[i].NoteType), model.NoteTypePrecedence(ranked[j].NoteType)
		if pi != pj {
			return pi > pj
		}
		di, dj := dateOrdinal(ranked[i].NoteDate), dateOrdinal(ranked[j].NoteDate)
		if di != dj {
			return di > dj
		}
		return ranked[i].Seq < ranked[j].Seq
	})
	return ranked
}

// AggregatePatient merges note-level records and their evidence into one
// patient-level record.
//
// Field-wise strategy:
//  1. prefer values with at least one clean (non-negated, non-uncertain)
//     evidence mention, walking notes in authority order;
//  2. if no clean-backed value exists, fall back to the first non-empty
//     value in the same order. The fallback checks only non-emptiness, so a
//     value whose only mention is negated can still be selected; this is
//     documented behavior.
//
// HER2 final status is derived from the already-selected IHC and FISH
// values and written only when determinate. Pure function: identical input
// always produces identical output.
func AggregatePatient(records []model.NoteRecord, evidence []model.Evidence) model.PatientRecord {
	if len(records) == 0 {
		return model.PatientRecord{}
	}
	patientID := records[0].PatientID
	if patientID == "" {
		return model.PatientRecord{}
	}

	out := model.PatientRecord{
		PatientID: patientID,
		Values:    make(map[string]string),
		Sources:   make(map[string]model.SourceRef),
	}

	ranked := rankNotes(records)
	idx := NewEvidenceIndex(evidence)

	for _, field := range model.BaseFields {
		var chosen string
		var chosenNote *model.NoteRecord

		// Pass 1: first value backed by clean evidence.
		for i := range ranked {
			v := ranked[i].Field(field)
			if v == "" {
				continue
			}
			if clean, _ := idx.HasSupport(patientID, field, v); clean {
				chosen = v
				chosenNote = &ranked[i]
				break
			}
		}

		// Pass 2: first non-empty value, regardless of evidence.
		if chosenNote == nil {
			for i := range ranked {
				if v := ranked[i].Field(field); v != "" {
					chosen = v
					chosenNote = &ranked[i]
					break
				}
			}
		}

		if chosenNote == nil {
			continue
		}

		out.Values[field] = chosen
		out.Sources[field] = model.SourceRef{
			NoteID:   chosenNote.NoteID,
			NoteType: chosenNote.NoteType,
			NoteDate: chosenNote.NoteDate,
		}

		bucket := model.ConfidenceBucket(chosenNote.NoteType)
		switch field {
		case model.FieldERStatus:
			out.ERConfidence = bucket
		case model.FieldERPercent:
			if out.ERConfidence == "" {
				out.ERConfidence = bucket
			}
		case model.FieldPRStatus:
			out.PRConfidence = bucket
		case model.FieldPRPercent:
			if out.PRConfidence == "" {
				out.PRConfidence = bucket
			}
		case model.FieldKi67Percent:
			out.Ki67Confidence = bucket
		case model.FieldHistology:
			out.HistologyConfidence = bucket
		}
	}

	if st, src, ok := normalize.ReconcileHER2(out.Values[model.FieldHER2IHCScore], out.Values[model.FieldHER2FISH], ""); ok {
		out.HER2FinalStatus = string(st)
		out.HER2Confidence = string(src)
	}

	return out
}
