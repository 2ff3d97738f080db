package recognize

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/phenotype-cli/internal/model"
)

func labelsOf(mentions []model.CandidateMention) []model.Label {
	out := make([]model.Label, len(mentions))
	for i, m := range mentions {
		out[i] = m.Label
	}
	return out
}

func TestRecognizeBasicLabels(t *testing.T) {
	r := New()
	defer r.Close()

	tests := []struct {
		name string
		text string
		want model.Label
	}{
		{"er colon positive", "ER: Positive", model.LabelERPos},
		{"er long form", "Estrogen receptor (ER): Positive", model.LabelERPos},
		{"er plus", "ER+", model.LabelERPos},
		{"er negative", "ER: Negative", model.LabelERNeg},
		{"pr positive", "PR positive", model.LabelPRPos},
		{"pr negative", "PR: neg", model.LabelPRNeg},
		{"her2 positive", "HER2 positive", model.LabelHER2Pos},
		{"her2 hyphen", "HER-2: Negative", model.LabelHER2Neg},
		{"fish amplified", "FISH: Amplified", model.LabelHER2FISHPos},
		{"fish not amplified", "Not amplified", model.LabelHER2FISHNeg},
		{"ki67", "Ki-67: 35%", model.LabelKi67},
		{"histology text", "Invasive ductal carcinoma", model.LabelHistText},
		{"idc abbrev", "IDC", model.LabelHistIDC},
		{"dcis", "DCIS", model.LabelHistDCIS},
		{"grade", "Grade 2", model.LabelGrade},
		{"generic stage", "Stage IIB", model.LabelStageGen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := r.Recognize(tt.text)
			require.NotEmpty(t, mentions, tt.text)
			assert.Contains(t, labelsOf(mentions), tt.want)
		})
	}
}

// The IHC rule's capture group narrows the mention text to the bare score
// while offsets keep the full match.
func TestRecognizeIHCCapturesScore(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("HER2: 2+")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelHER2IHC, mentions[0].Label)
	assert.Equal(t, "2+", mentions[0].Text)
	assert.Equal(t, 0, mentions[0].Start)
	assert.Equal(t, len("HER2: 2+"), mentions[0].End)
}

func TestRecognizeOverlapPrefersSpecificStage(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("Pathologic Stage IIA.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelStagePath, mentions[0].Label)

	mentions = r.Recognize("Clinical stage IIB.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelStageClin, mentions[0].Label)
}

func TestRecognizeNegation(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("No evidence of DCIS.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelHistDCIS, mentions[0].Label)
	assert.True(t, mentions[0].IsNegated)

	// A cue inside the mention span does not negate the mention itself.
	mentions = r.Recognize("FISH: Not amplified.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelHER2FISHNeg, mentions[0].Label)
	assert.False(t, mentions[0].IsNegated)
}

func TestRecognizeUncertainty(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("Cannot exclude invasive lobular carcinoma.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.LabelHistText, mentions[0].Label)
	assert.True(t, mentions[0].IsUncertain)
	assert.False(t, mentions[0].IsNegated)
}

// Negation scope ends at the sentence boundary.
func TestRecognizeNegationStopsAtSentence(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("No residual tumor. ER: Positive.")
	require.NotEmpty(t, mentions)
	for _, m := range mentions {
		if m.Label == model.LabelERPos {
			assert.False(t, m.IsNegated)
			return
		}
	}
	t.Fatal("expected an ER_POS mention")
}

func TestRecognizeSentenceAttached(t *testing.T) {
	r := New()
	defer r.Close()

	mentions := r.Recognize("Diagnosis follows. ER: Positive (90%).")
	require.NotEmpty(t, mentions)
	assert.Contains(t, mentions[0].Sentence, "ER: Positive (90%)")
}

func TestWithExtraRules(t *testing.T) {
	extra := []Rule{{
		Label:   model.Label("PDL1"),
		Pattern: regexp.MustCompile(`(?i)\bpd-?l1\b`),
	}}
	r := New(WithExtraRules(extra))
	defer r.Close()

	mentions := r.Recognize("PD-L1 expression noted.")
	require.Len(t, mentions, 1)
	assert.Equal(t, model.Label("PDL1"), mentions[0].Label)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - label: PDL1
    pattern: (?i)\bpd-?l1\b
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.Label("PDL1"), rules[0].Label)
	assert.True(t, rules[0].Pattern.MatchString("PD-L1"))
}

func TestLoadRulesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`rules:
  - label: PDL1
`), 0o600))
	_, err = LoadRules(bad)
	assert.Error(t, err)

	badRe := filepath.Join(dir, "badre.yaml")
	require.NoError(t, os.WriteFile(badRe, []byte(`rules:
  - label: PDL1
    pattern: "("
`), 0o600))
	_, err = LoadRules(badRe)
	assert.Error(t, err)
}
