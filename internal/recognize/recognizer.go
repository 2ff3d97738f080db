// Package recognize finds candidate biomarker mentions in cleaned note text
// and tags them with negation and uncertainty context. It stands in for a
// clinical NER pipeline behind a small interface so the extraction
// orchestrator never depends on how mentions are produced.
package recognize

import (
	"sort"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// Recognizer produces ordered candidate mentions for one note text.
type Recognizer interface {
	Recognize(text string) []model.CandidateMention
	Close() error
}

// RuleRecognizer matches a fixed rule set over note text. Construct with
// New and release with Close; there is deliberately no process-wide
// instance.
type RuleRecognizer struct {
	rules []Rule
}

// Option configures a RuleRecognizer.
type Option func(*RuleRecognizer)

// WithExtraRules appends overlay rules after the built-in set.
func WithExtraRules(rules []Rule) Option {
	return func(r *RuleRecognizer) {
		r.rules = append(r.rules, rules...)
	}
}

// New builds a RuleRecognizer with the default target rules.
func New(opts ...Option) *RuleRecognizer {
	r := &RuleRecognizer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the recognizer. The rule matcher holds no external
// resources, but callers treat the recognizer as a disposable handle.
func (r *RuleRecognizer) Close() error { return nil }

type candidate struct {
	label    model.Label
	text     string
	start    int
	end      int
	priority int
}

// Recognize returns non-overlapping mentions in document order. Overlaps
// resolve to the earliest match, then the longest, then rule priority, so
// "Pathologic Stage IIA" reads as STAGE_PATH rather than STAGE_GENERIC.
func (r *RuleRecognizer) Recognize(text string) []model.CandidateMention {
	var cands []candidate
	for prio, rule := range r.rules {
		for _, m := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			c := candidate{
				label:    rule.Label,
				text:     text[m[0]:m[1]],
				start:    m[0],
				end:      m[1],
				priority: prio,
			}
			// A capture group narrows the mention text (e.g. the bare IHC
			// score) without narrowing the span.
			if len(m) >= 4 && m[2] >= 0 {
				c.text = text[m[2]:m[3]]
			}
			cands = append(cands, c)
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		if cands[i].end != cands[j].end {
			return cands[i].end > cands[j].end
		}
		return cands[i].priority < cands[j].priority
	})

	sentences := splitSentences(text)

	var out []model.CandidateMention
	lastEnd := -1
	for _, c := range cands {
		if c.start < lastEnd {
			continue
		}
		lastEnd = c.end

		sent := sentenceAt(sentences, c.start, len(text))
		window := text[sent.Start:sent.End]
		rel := c.start - sent.Start

		out = append(out, model.CandidateMention{
			Label:       c.label,
			Text:        c.text,
			Start:       c.start,
			End:         c.end,
			Sentence:    window,
			IsNegated:   cuePrecedes(negationCues, window, rel),
			IsUncertain: cuePrecedes(uncertaintyCues, window, rel),
		})
	}
	return out
}
