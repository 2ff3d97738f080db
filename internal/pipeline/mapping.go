package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// MappingEntry is one document-to-patient assignment from the mapping CSV.
type MappingEntry struct {
	PatientID string
	NoteDate  string
	NoteType  string
}

// Mapping resolves a note id or filename to its patient assignment.
type Mapping struct {
	byNoteID   map[string]MappingEntry
	byFilename map[string]MappingEntry
}

// NewMapping builds a mapping keyed by note id, for callers that supply
// assignments inline instead of via CSV.
func NewMapping(entries map[string]MappingEntry) *Mapping {
	m := &Mapping{
		byNoteID:   make(map[string]MappingEntry, len(entries)),
		byFilename: make(map[string]MappingEntry),
	}
	for id, e := range entries {
		if e.NoteType == "" {
			e.NoteType = "Unknown"
		}
		m.byNoteID[id] = e
	}
	return m
}

// Resolve looks up a note by id first, then by filename. Absent entries
// default to note type "Unknown" and an empty date.
func (m *Mapping) Resolve(noteID, filename string) MappingEntry {
	if m != nil {
		if e, ok := m.byNoteID[noteID]; ok {
			return e
		}
		if e, ok := m.byFilename[filename]; ok {
			return e
		}
	}
	return MappingEntry{NoteType: "Unknown"}
}

// ParseMappingCSV reads the document-to-patient mapping. The CSV must
// contain a patient_id column and at least one of note_id or filename;
// note_date and note_type are optional. Missing required columns are the
// one structural error that surfaces to the caller.
func ParseMappingCSV(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapping: open %s", path)
	}
	defer f.Close()
	return ReadMapping(f)
}

// ReadMapping parses mapping CSV content from a reader.
func ReadMapping(r io.Reader) (*Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "mapping: read header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	_, hasNoteID := col["note_id"]
	_, hasFilename := col["filename"]
	if !hasNoteID && !hasFilename {
		return nil, eris.New("mapping: CSV must include a note_id or filename column")
	}
	if _, ok := col["patient_id"]; !ok {
		return nil, eris.New("mapping: CSV must include a patient_id column")
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	m := &Mapping{
		byNoteID:   make(map[string]MappingEntry),
		byFilename: make(map[string]MappingEntry),
	}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "mapping: read row")
		}

		entry := MappingEntry{
			PatientID: get(row, "patient_id"),
			NoteDate:  get(row, "note_date"),
			NoteType:  get(row, "note_type"),
		}
		if entry.NoteType == "" {
			entry.NoteType = "Unknown"
		}
		if id := get(row, "note_id"); id != "" {
			m.byNoteID[id] = entry
		}
		if fn := get(row, "filename"); fn != "" {
			m.byFilename[fn] = entry
		}
	}
	return m, nil
}
