package normalize

import (
	"regexp"
	"strings"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// HER2Source names the signal a reconciled HER2 status came from.
type HER2Source string

const (
	HER2SourceFISH     HER2Source = "fish"
	HER2SourceIHC      HER2Source = "ihc"
	HER2SourceExplicit HER2Source = "explicit"
)

var ihcWhitespaceRe = regexp.MustCompile(`\s+`)

var ihcScores = map[string]model.Status{
	"3+": model.StatusPositive,
	"3":  model.StatusPositive,

	"2+": model.StatusEquivocal,
	"2":  model.StatusEquivocal,

	"1+":   model.StatusNegative,
	"1":    model.StatusNegative,
	"0":    model.StatusNegative,
	"0+":   model.StatusNegative,
	"0/1+": model.StatusNegative,
	"0-1+": model.StatusNegative,
	"0-1":  model.StatusNegative,
}

// IHCStatus maps an IHC score string to a HER2 status. Whitespace is
// collapsed first so "3 +" reads as "3+".
func IHCStatus(score string) (model.Status, bool) {
	s := ihcWhitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(score)), "")
	if s == "" {
		return "", false
	}
	st, ok := ihcScores[s]
	return st, ok
}

// FISHStatus maps FISH result text to a HER2 status by keyword. Negative
// amplification phrasings are checked before the bare "amplified" match.
func FISHStatus(text string) (model.Status, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}

	if strings.Contains(s, "not amplified") || strings.Contains(s, "nonampl") || strings.Contains(s, "non-ampl") {
		return model.StatusNegative, true
	}
	if strings.Contains(s, "no ampl") || strings.Contains(s, "no amplification") {
		return model.StatusNegative, true
	}
	if strings.Contains(s, "amplified") || strings.Contains(s, "amplification") {
		return model.StatusPositive, true
	}

	// fallback keywords
	if strings.Contains(s, "positive") || strings.Contains(s, "pos") {
		return model.StatusPositive, true
	}
	if strings.Contains(s, "negative") || strings.Contains(s, "neg") {
		return model.StatusNegative, true
	}
	return "", false
}

// ReconcileHER2 resolves IHC, FISH and explicit-text signals into one final
// HER2 status using clinical precedence: a determinate FISH result always
// wins, then the IHC score, then explicit text. Explicit text counts only
// when it normalizes to Positive, Negative or Equivocal.
//
// This is the single reconciliation algorithm; per-note extraction and
// patient aggregation both call it.
func ReconcileHER2(ihcScore, fish, explicit string) (model.Status, HER2Source, bool) {
	if st, ok := FISHStatus(fish); ok {
		return st, HER2SourceFISH, true
	}
	if st, ok := IHCStatus(ihcScore); ok {
		return st, HER2SourceIHC, true
	}
	if st, ok := Status(explicit); ok {
		switch st {
		case model.StatusPositive, model.StatusNegative, model.StatusEquivocal:
			return st, HER2SourceExplicit, true
		}
	}
	return "", "", false
}
