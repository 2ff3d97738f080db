package pipeline

import (
	"regexp"
	"strings"
)

var (
	runSpacesRe   = regexp.MustCompile(`[\t ]{2,}`)
	runNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes raw note text before recognition: CRLF to LF,
// collapsed space runs, at most one blank line. Newlines are kept because
// notes are section-structured.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = runSpacesRe.ReplaceAllString(text, " ")
	text = runNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
