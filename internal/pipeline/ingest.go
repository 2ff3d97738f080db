package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// NoteFile is one raw note loaded for a run. The filename doubles as the
// note id, matching how mapping CSVs identify documents.
type NoteFile struct {
	NoteID string
	Name   string
	Text   string
}

// LoadNotesDir reads every .txt file under dir, sorted by name so intake
// order is deterministic across runs.
func LoadNotesDir(dir string) ([]NoteFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read dir %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	notes := make([]NoteFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read note %s", name)
		}
		notes = append(notes, NoteFile{
			NoteID: name,
			Name:   name,
			Text:   DecodeNoteText(data),
		})
	}
	return notes, nil
}

// DecodeNoteText interprets note bytes as UTF-8, falling back to Latin-1
// for legacy exports. Latin-1 decoding cannot fail, so this always returns
// text.
func DecodeNoteText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
