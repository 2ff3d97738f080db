package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// evidenceColumns is the exported evidence CSV header.
var evidenceColumns = []string{
	"patient_id", "note_id", "note_date", "note_type",
	"field", "value", "start", "end", "snippet",
	"label", "confidence", "is_negated", "is_uncertain",
}

// WritePatientCSV writes patient records in the v1 column order.
func WritePatientCSV(w io.Writer, patients []model.PatientRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.PatientColumnsV1); err != nil {
		return eris.Wrap(err, "export: write patient header")
	}
	for _, p := range patients {
		row := make([]string, len(model.PatientColumnsV1))
		for i, col := range model.PatientColumnsV1 {
			row[i] = p.Column(col)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write patient row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush patient csv")
}

// WriteEvidenceCSV writes the full evidence audit trail.
func WriteEvidenceCSV(w io.Writer, evidence []model.Evidence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(evidenceColumns); err != nil {
		return eris.Wrap(err, "export: write evidence header")
	}
	for _, e := range evidence {
		row := []string{
			e.PatientID, e.NoteID, e.NoteDate, e.NoteType,
			e.Field, e.Value,
			strconv.Itoa(e.Start), strconv.Itoa(e.End), e.Snippet,
			string(e.Label),
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			strconv.FormatBool(e.IsNegated), strconv.FormatBool(e.IsUncertain),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write evidence row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush evidence csv")
}

// WritePatientXLSX writes the patient table as a spreadsheet for manual
// chart review.
func WritePatientXLSX(path string, patients []model.PatientRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("patients")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.PatientColumnsV1 {
		header.AddCell().Value = col
	}
	for _, p := range patients {
		row := sheet.AddRow()
		for _, col := range model.PatientColumnsV1 {
			row.AddCell().Value = p.Column(col)
		}
	}

	return eris.Wrapf(f.Save(path), "export: save xlsx %s", path)
}
