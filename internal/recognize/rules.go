package recognize

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// Rule is one target pattern. If the pattern has a capture group, the group
// becomes the mention text (used for sub-token values like IHC scores);
// offsets always cover the full match.
type Rule struct {
	Label   model.Label
	Pattern *regexp.Regexp
}

// DefaultRules returns the built-in target rules for breast-cancer
// biomarker mentions. Order is the tie-break priority when two rules match
// the same span at the same length.
func DefaultRules() []Rule {
	return []Rule{
		// ER / PR. Handles "ER: Positive", "Estrogen receptor (ER): Positive",
		// "ER positive", "ER+".
		{model.LabelERPos, regexp.MustCompile(`(?i)\b(?:estrogen\s+receptor|er)\b(?:\s*\(\s*er\s*\))?\s*[:\-]?\s*(?:positive\b|pos\b|\+)`)},
		{model.LabelERNeg, regexp.MustCompile(`(?i)\b(?:estrogen\s+receptor|er)\b(?:\s*\(\s*er\s*\))?\s*[:]?\s*(?:negative\b|neg\b|-)`)},
		{model.LabelPRPos, regexp.MustCompile(`(?i)\b(?:progesterone\s+receptor|pr)\b(?:\s*\(\s*pr\s*\))?\s*[:\-]?\s*(?:positive\b|pos\b|\+)`)},
		{model.LabelPRNeg, regexp.MustCompile(`(?i)\b(?:progesterone\s+receptor|pr)\b(?:\s*\(\s*pr\s*\))?\s*[:]?\s*(?:negative\b|neg\b|-)`)},

		// HER2. The IHC rule captures the bare score so "HER2: 2+" yields "2+".
		{model.LabelHER2IHC, regexp.MustCompile(`(?i)\bher-?2\b\s*[:\-]?\s*(?:ihc\s*[:\-]?\s*)?([0-3]\s*\+|0\s*[/\-]\s*1\s*\+?|[0-3]\b)`)},
		{model.LabelHER2Pos, regexp.MustCompile(`(?i)\bher-?2\b\s*[:\-]?\s*(?:positive\b|pos\b|\+)`)},
		{model.LabelHER2Neg, regexp.MustCompile(`(?i)\bher-?2\b\s*[:]?\s*(?:negative\b|neg\b|-)`)},
		{model.LabelHER2FISHPos, regexp.MustCompile(`(?i)\bfish\b\s*[:\-]?\s*(?:amplified\b|positive\b|pos\b)`)},
		{model.LabelHER2FISHNeg, regexp.MustCompile(`(?i)\bfish\b\s*[:\-]?\s*(?:negative\b|neg\b)`)},
		{model.LabelHER2FISHNeg, regexp.MustCompile(`(?i)\bnot\s+amplif(?:ied|ication)\b`)},

		// Ki-67
		{model.LabelKi67, regexp.MustCompile(`(?i)\bki-?67\b\s*[:\-]?\s*(\d{1,3})\s*%`)},

		// Histology
		{model.LabelHistText, regexp.MustCompile(`(?i)\binvasive\s+(?:ductal|lobular)\s+carcinoma\b`)},
		{model.LabelHistIDC, regexp.MustCompile(`(?i)\bidc\b`)},
		{model.LabelHistILC, regexp.MustCompile(`(?i)\bilc\b`)},
		{model.LabelHistDCIS, regexp.MustCompile(`(?i)\bdcis\b`)},

		// Grade
		{model.LabelGrade, regexp.MustCompile(`(?i)\bgrade\s*[:\-]?\s*[1-3]\b`)},

		// Stage. Path and clinical rules outrank the generic one by length
		// and priority during overlap resolution.
		{model.LabelStagePath, regexp.MustCompile(`(?i)\b(?:pathologic(?:al)?|p)\s+stage\s*[:\-]?\s*(?:iv|iii|ii|i)[abc]?\b`)},
		{model.LabelStageClin, regexp.MustCompile(`(?i)\b(?:clinical|c)\s+stage\s*[:\-]?\s*(?:iv|iii|ii|i)[abc]?\b`)},
		{model.LabelStageGen, regexp.MustCompile(`(?i)\bstage\s*[:\-]?\s*(?:iv|iii|ii|i)[abc]?\b`)},
	}
}

// ruleFile is the YAML shape for rule overlays.
type ruleFile struct {
	Rules []struct {
		Label   string `yaml:"label"`
		Pattern string `yaml:"pattern"`
	} `yaml:"rules"`
}

// LoadRules reads extra target rules from a YAML file. Overlay rules are
// appended after the built-in set, so they rank below it for ties.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "recognize: read rules %s", path)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrapf(err, "recognize: parse rules %s", path)
	}

	rules := make([]Rule, 0, len(rf.Rules))
	for _, r := range rf.Rules {
		if r.Label == "" || r.Pattern == "" {
			return nil, eris.Errorf("recognize: rule missing label or pattern in %s", path)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "recognize: compile rule %q", r.Label)
		}
		rules = append(rules, Rule{Label: model.Label(r.Label), Pattern: re})
	}
	return rules, nil
}
