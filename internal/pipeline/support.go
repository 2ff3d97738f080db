package pipeline

import "github.com/sells-group/phenotype-cli/internal/model"

// EvidenceIndex answers whether evidence exists for a (patient, field,
// value) triple, and whether any of it is clean (neither negated nor
// uncertain). Values are compared in canonical form, so the integer 35 and
// the string "35" match.
type EvidenceIndex struct {
	entries map[supportKey]supportState
}

type supportKey struct {
	patientID string
	field     string
	value     string
}

type supportState struct {
	clean bool
	any   bool
}

// NewEvidenceIndex builds an index over the given evidence rows.
func NewEvidenceIndex(rows []model.Evidence) *EvidenceIndex {
	idx := &EvidenceIndex{entries: make(map[supportKey]supportState, len(rows))}
	for _, e := range rows {
		k := supportKey{
			patientID: e.PatientID,
			field:     e.Field,
			value:     model.CanonicalValue(e.Value),
		}
		s := idx.entries[k]
		s.any = true
		if !e.IsNegated && !e.IsUncertain {
			s.clean = true
		}
		idx.entries[k] = s
	}
	return idx
}

// HasSupport reports (clean, any) support for the triple.
func (idx *EvidenceIndex) HasSupport(patientID, field string, value any) (bool, bool) {
	s := idx.entries[supportKey{
		patientID: patientID,
		field:     field,
		value:     model.CanonicalValue(value),
	}]
	return s.clean, s.any
}
