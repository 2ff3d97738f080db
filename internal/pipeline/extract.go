package pipeline

import (
	"regexp"
	"strconv"

	"github.com/sells-group/phenotype-cli/internal/model"
	"github.com/sells-group/phenotype-cli/internal/normalize"
)

// snippetWindow is the number of characters of surrounding note text kept
// on each side of an evidence span.
const snippetWindow = 80

// ER/PR percent sub-extraction: a percent sign must exist within a bounded
// gap of the receptor keyword.
var (
	erPctRe = regexp.MustCompile(`(?i)\b(?:estrogen receptor|er)\b[^%\n]{0,60}\b(\d{1,3})\s*%`)
	prPctRe = regexp.MustCompile(`(?i)\b(?:progesterone receptor|pr)\b[^%\n]{0,60}\b(\d{1,3})\s*%`)
)

// ER/PR status safety net: direct keyword regexes run over the whole note
// when no recognizer mention set the status.
var (
	erPosFallbackRe = regexp.MustCompile(`(?i)\b(?:estrogen receptor|er)\b[^a-z0-9]{0,10}\b(?:positive|pos|\+)`)
	erNegFallbackRe = regexp.MustCompile(`(?i)\b(?:estrogen receptor|er)\b[^a-z0-9]{0,10}\b(?:negative|neg|-)`)
	prPosFallbackRe = regexp.MustCompile(`(?i)\b(?:progesterone receptor|pr)\b[^a-z0-9]{0,10}\b(?:positive|pos|\+)`)
	prNegFallbackRe = regexp.MustCompile(`(?i)\b(?:progesterone receptor|pr)\b[^a-z0-9]{0,10}\b(?:negative|neg|-)`)
)

// NoteMeta carries the document identity supplied by the external mapping.
type NoteMeta struct {
	PatientID string
	NoteID    string
	NoteDate  string
	NoteType  string
	Seq       int
}

func findPercent(re *regexp.Regexp, window string) (int, bool) {
	m := re.FindStringSubmatch(window)
	if m == nil {
		return 0, false
	}
	val, err := strconv.Atoi(m[1])
	if err != nil || val < 0 || val > 100 {
		return 0, false
	}
	return val, true
}

// Extract turns one note's candidate mentions into a note-level phenotype
// record and its supporting evidence. Normalization failures leave fields
// empty; Extract never fails.
//
// Field writes are first-wins within a note. HER2 sub-signals (IHC, FISH,
// explicit) are collected individually as evidence and reconciled once at
// the end.
func Extract(text string, meta NoteMeta, mentions []model.CandidateMention) (model.NoteRecord, []model.Evidence) {
	rec := model.NoteRecord{
		PatientID: meta.PatientID,
		NoteID:    meta.NoteID,
		NoteDate:  meta.NoteDate,
		NoteType:  meta.NoteType,
		Seq:       meta.Seq,
	}

	var her2IHC, her2FISH, her2Explicit string
	var evidence []model.Evidence

	addEv := func(field, value string, m model.CandidateMention, conf float64) {
		lo := max(m.Start-snippetWindow, 0)
		hi := min(m.End+snippetWindow, len(text))
		evidence = append(evidence, model.Evidence{
			PatientID:   meta.PatientID,
			NoteID:      meta.NoteID,
			NoteDate:    meta.NoteDate,
			NoteType:    meta.NoteType,
			Field:       field,
			Value:       model.CanonicalValue(value),
			Start:       m.Start,
			End:         m.End,
			Snippet:     text[lo:hi],
			Label:       m.Label,
			Confidence:  conf,
			IsNegated:   m.IsNegated,
			IsUncertain: m.IsUncertain,
		})
	}

	setOnce := func(field, value string) {
		if rec.Field(field) == "" {
			rec.SetField(field, value)
		}
	}

	receptorPercent := func(re *regexp.Regexp, field string, m model.CandidateMention) {
		if rec.Field(field) != "" {
			return
		}
		if pct, ok := findPercent(re, m.Sentence); ok {
			rec.SetField(field, strconv.Itoa(pct))
			addEv(field, strconv.Itoa(pct), m, 0.70)
		}
	}

	for _, m := range mentions {
		switch m.Label {
		case model.LabelERPos:
			setOnce(model.FieldERStatus, string(model.StatusPositive))
			addEv(model.FieldERStatus, string(model.StatusPositive), m, 0.85)
			receptorPercent(erPctRe, model.FieldERPercent, m)

		case model.LabelERNeg:
			setOnce(model.FieldERStatus, string(model.StatusNegative))
			addEv(model.FieldERStatus, string(model.StatusNegative), m, 0.85)
			receptorPercent(erPctRe, model.FieldERPercent, m)

		case model.LabelPRPos:
			setOnce(model.FieldPRStatus, string(model.StatusPositive))
			addEv(model.FieldPRStatus, string(model.StatusPositive), m, 0.85)
			receptorPercent(prPctRe, model.FieldPRPercent, m)

		case model.LabelPRNeg:
			setOnce(model.FieldPRStatus, string(model.StatusNegative))
			addEv(model.FieldPRStatus, string(model.StatusNegative), m, 0.85)
			receptorPercent(prPctRe, model.FieldPRPercent, m)

		case model.LabelHER2IHC:
			if her2IHC == "" {
				her2IHC = model.CanonicalValue(m.Text)
			}
			addEv(model.FieldHER2IHCScore, m.Text, m, 0.80)

		case model.LabelHER2Pos:
			if her2Explicit == "" {
				her2Explicit = string(model.StatusPositive)
			}
			addEv(model.FieldHER2Status, string(model.StatusPositive), m, 0.75)

		case model.LabelHER2Neg:
			if her2Explicit == "" {
				her2Explicit = string(model.StatusNegative)
			}
			addEv(model.FieldHER2Status, string(model.StatusNegative), m, 0.75)

		case model.LabelHER2FISHPos:
			if her2FISH == "" {
				her2FISH = "Amplified"
			}
			addEv(model.FieldHER2FISH, "Amplified", m, 0.85)

		case model.LabelHER2FISHNeg:
			if her2FISH == "" {
				her2FISH = "Not amplified"
			}
			addEv(model.FieldHER2FISH, "Not amplified", m, 0.85)

		case model.LabelKi67:
			if val, ok := normalize.Percent(m.Text); ok {
				setOnce(model.FieldKi67Percent, strconv.Itoa(val))
				addEv(model.FieldKi67Percent, strconv.Itoa(val), m, 0.80)
			}

		case model.LabelHistIDC, model.LabelHistILC, model.LabelHistDCIS, model.LabelHistText:
			src := m.Text
			if m.Label == model.LabelHistText {
				src = m.Sentence
			}
			if hist, ok := normalize.Histology(src); ok {
				setOnce(model.FieldHistology, hist)
				addEv(model.FieldHistology, hist, m, 0.75)
			}

		case model.LabelGrade:
			if g, ok := normalize.Grade(m.Sentence); ok {
				setOnce(model.FieldGrade, g)
				addEv(model.FieldGrade, g, m, 0.75)
			}

		case model.LabelStagePath:
			if st, ok := normalize.Stage(m.Text); ok {
				setOnce(model.FieldStagePath, st)
				addEv(model.FieldStagePath, st, m, 0.75)
			}

		case model.LabelStageClin:
			if st, ok := normalize.Stage(m.Text); ok {
				setOnce(model.FieldStageClinical, st)
				addEv(model.FieldStageClinical, st, m, 0.75)
			}

		case model.LabelStageGen:
			// A generic stage mention fills whichever slot is still open,
			// pathologic first.
			if st, ok := normalize.Stage(m.Sentence); ok {
				if rec.StagePath == "" {
					rec.StagePath = st
					addEv(model.FieldStagePath, st, m, 0.60)
				} else if rec.StageClinical == "" {
					rec.StageClinical = st
					addEv(model.FieldStageClinical, st, m, 0.60)
				}
			}
		}
	}

	// Safety net: guarantee ER/PR status whenever a clear textual cue
	// exists, even without recognizer coverage. Sets the field without
	// emitting evidence: last-resort coverage, not an auditable finding.
	if rec.ERStatus == "" {
		if erPosFallbackRe.MatchString(text) {
			rec.ERStatus = string(model.StatusPositive)
		} else if erNegFallbackRe.MatchString(text) {
			rec.ERStatus = string(model.StatusNegative)
		}
	}
	if rec.PRStatus == "" {
		if prPosFallbackRe.MatchString(text) {
			rec.PRStatus = string(model.StatusPositive)
		} else if prNegFallbackRe.MatchString(text) {
			rec.PRStatus = string(model.StatusNegative)
		}
	}

	// Whole-note percent fallback, still requiring a % sign.
	if rec.ERPercent == "" {
		if pct, ok := findPercent(erPctRe, text); ok {
			rec.ERPercent = strconv.Itoa(pct)
		}
	}
	if rec.PRPercent == "" {
		if pct, ok := findPercent(prPctRe, text); ok {
			rec.PRPercent = strconv.Itoa(pct)
		}
	}

	rec.HER2IHCScore = her2IHC
	rec.HER2FISH = her2FISH
	if st, _, ok := normalize.ReconcileHER2(her2IHC, her2FISH, her2Explicit); ok {
		rec.HER2Status = string(st)
	}

	return rec, evidence
}
