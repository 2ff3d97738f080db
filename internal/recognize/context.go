package recognize

import "regexp"

// ConText-style cue detection: a cue negates or hedges a mention when it
// appears earlier in the same sentence.

var negationCues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bno evidence of\b`),
	regexp.MustCompile(`(?i)\bwithout\b`),
	regexp.MustCompile(`(?i)\bnot\b`),
	regexp.MustCompile(`(?i)\bno\b`),
}

var uncertaintyCues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcannot exclude\b`),
	regexp.MustCompile(`(?i)\brule out\b`),
	regexp.MustCompile(`(?i)\bpossibly\b`),
	regexp.MustCompile(`(?i)\bpossible\b`),
	regexp.MustCompile(`(?i)\bequivocal\b`),
}

// sentence is a half-open [Start,End) span into the note text.
type sentence struct {
	Start int
	End   int
}

// splitSentences segments text on terminal punctuation and newlines,
// keeping character offsets into the original text.
func splitSentences(text string) []sentence {
	var out []sentence
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			if i > start {
				out = append(out, sentence{Start: start, End: i + 1})
			}
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, sentence{Start: start, End: len(text)})
	}
	return out
}

// sentenceAt returns the sentence span containing the given offset. Falls
// back to the whole text when segmentation yields nothing.
func sentenceAt(sentences []sentence, offset, textLen int) sentence {
	for _, s := range sentences {
		if offset >= s.Start && offset < s.End {
			return s
		}
	}
	return sentence{Start: 0, End: textLen}
}

// cuePrecedes reports whether any cue matches inside window before the
// mention offset (both relative to the window start).
func cuePrecedes(cues []*regexp.Regexp, window string, mentionOffset int) bool {
	for _, cue := range cues {
		for _, loc := range cue.FindAllStringIndex(window, -1) {
			if loc[1] <= mentionOffset {
				return true
			}
		}
	}
	return false
}
