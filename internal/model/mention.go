package model

// Label identifies the recognizer rule category that produced a mention.
type Label string

// Recognizer label vocabulary. The recognizer boundary emits exactly these;
// the extraction orchestrator dispatches on them.
const (
	LabelERPos       Label = "ER_POS"
	LabelERNeg       Label = "ER_NEG"
	LabelPRPos       Label = "PR_POS"
	LabelPRNeg       Label = "PR_NEG"
	LabelHER2Pos     Label = "HER2_POS"
	LabelHER2Neg     Label = "HER2_NEG"
	LabelHER2IHC     Label = "HER2_IHC"
	LabelHER2FISHPos Label = "HER2_FISH_POS"
	LabelHER2FISHNeg Label = "HER2_FISH_NEG"
	LabelKi67        Label = "KI67"
	LabelHistIDC     Label = "HISTOLOGY_IDC"
	LabelHistILC     Label = "HISTOLOGY_ILC"
	LabelHistDCIS    Label = "HISTOLOGY_DCIS"
	LabelHistText    Label = "HISTOLOGY_TEXT"
	LabelGrade       Label = "GRADE"
	LabelStagePath   Label = "STAGE_PATH"
	LabelStageClin   Label = "STAGE_CLIN"
	LabelStageGen    Label = "STAGE_GENERIC"
)

// CandidateMention is one recognizer hit over the cleaned note text.
// Produced per recognizer call, never mutated.
type CandidateMention struct {
	Label    Label  `json:"label"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Sentence string `json:"sentence"`

	// ConText flags from the negation/uncertainty pass.
	IsNegated   bool `json:"is_negated"`
	IsUncertain bool `json:"is_uncertain"`
}
