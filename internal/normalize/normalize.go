// Package normalize canonicalizes raw matched text into typed phenotype
// field values. Every function is best-effort: unparseable or out-of-range
// input reports ok=false, never an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/phenotype-cli/internal/model"
)

var (
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%?`)
	gradeRe   = regexp.MustCompile(`\bgrade\s*[:\-]?\s*(\d)\b`)
	stageRe   = regexp.MustCompile(`\bstage\s*([ivx]+)\s*([abc])?\b`)
)

// Percent extracts the first 1-3 digit run (optional % sign) and accepts it
// only in [0,100].
func Percent(text string) (int, bool) {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	val, err := strconv.Atoi(m[1])
	if err != nil || val < 0 || val > 100 {
		return 0, false
	}
	return val, true
}

var statusTokens = map[string]model.Status{
	"positive": model.StatusPositive,
	"pos":      model.StatusPositive,
	"+":        model.StatusPositive,
	"yes":      model.StatusPositive,
	"detected": model.StatusPositive,

	"negative":     model.StatusNegative,
	"neg":          model.StatusNegative,
	"-":            model.StatusNegative,
	"no":           model.StatusNegative,
	"not detected": model.StatusNegative,

	"equivocal":     model.StatusEquivocal,
	"borderline":    model.StatusEquivocal,
	"indeterminate": model.StatusEquivocal,

	"unknown": model.StatusUnknown,
	"pending": model.StatusUnknown,
	"n/a":     model.StatusUnknown,
	"na":      model.StatusUnknown,
}

// Status canonicalizes status-like text into Positive, Negative, Equivocal
// or Unknown. Exact tokens first, then the "er+" / "pr-" suffix rule.
// Idempotent: a value already in the canonical set maps to itself.
func Status(text string) (model.Status, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	if s, ok := statusTokens[t]; ok {
		return s, true
	}
	if strings.HasSuffix(t, "+") {
		return model.StatusPositive, true
	}
	if strings.HasSuffix(t, "-") {
		return model.StatusNegative, true
	}
	return "", false
}

// Histology maps free text onto IDC, ILC, DCIS or Mixed by substring
// detection. Mixed beats single labels when both appear; DCIS is checked
// before the single invasive labels.
func Histology(text string) (string, bool) {
	t := strings.ToLower(text)
	if t == "" {
		return "", false
	}

	hasIDC := strings.Contains(t, "invasive ductal") || strings.Contains(t, "idc")
	hasILC := strings.Contains(t, "invasive lobular") || strings.Contains(t, "ilc")

	switch {
	case hasIDC && hasILC:
		return "Mixed", true
	case strings.Contains(t, "dcis"), strings.Contains(t, "ductal carcinoma in situ"):
		return "DCIS", true
	case hasIDC:
		return "IDC", true
	case hasILC:
		return "ILC", true
	}
	return "", false
}

// Grade extracts a single-digit histologic grade 1-3 following the token
// "grade", with optional punctuation ("grade: 3", "histologic grade 1").
func Grade(text string) (string, bool) {
	m := gradeRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	switch m[1] {
	case "1", "2", "3":
		return m[1], true
	}
	return "", false
}

// Stage extracts "stage" followed by a roman numeral I-IV with an optional
// a/b/c suffix, returned uppercase (e.g. "IIIA").
func Stage(text string) (string, bool) {
	m := stageRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + strings.ToUpper(m[2]), true
}
