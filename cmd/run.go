package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/phenotype-cli/internal/pipeline"
)

var (
	runNotesDir    string
	runMappingCSV  string
	runOutDir      string
	runXLSX        string
	runConcurrency int
	runSave        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract and aggregate a directory of notes",
	Long: `Reads every .txt note under --notes, extracts note-level phenotype
records, aggregates one record per patient, and writes
patient_phenotypes_v1.csv plus extraction_evidence.csv to --out.

The optional mapping CSV assigns patient_id, note_date and note_type by
note_id or filename; unmapped notes get note_type "Unknown" and are skipped
at aggregation.

Examples:
  phenotype-cli run --notes ./notes --mapping mapping.csv
  phenotype-cli run --notes ./notes --mapping mapping.csv --save --xlsx review.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		notes, err := pipeline.LoadNotesDir(runNotesDir)
		if err != nil {
			return eris.Wrap(err, "run: load notes")
		}
		zap.L().Info("loaded notes", zap.Int("count", len(notes)))

		var mapping *pipeline.Mapping
		if runMappingCSV != "" {
			mapping, err = pipeline.ParseMappingCSV(runMappingCSV)
			if err != nil {
				return eris.Wrap(err, "run: parse mapping")
			}
		}

		rec, err := newRecognizer()
		if err != nil {
			return eris.Wrap(err, "run: build recognizer")
		}
		defer rec.Close()

		concurrency := runConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Pipeline.Concurrency
		}

		p := pipeline.New(rec, concurrency)
		result, err := p.Run(cmd.Context(), notes, mapping)
		if err != nil {
			return eris.Wrap(err, "run: pipeline")
		}

		if err := writeCSVFile(filepath.Join(runOutDir, "patient_phenotypes_v1.csv"), func(f *os.File) error {
			return pipeline.WritePatientCSV(f, result.Patients)
		}); err != nil {
			return err
		}
		if err := writeCSVFile(filepath.Join(runOutDir, "extraction_evidence.csv"), func(f *os.File) error {
			return pipeline.WriteEvidenceCSV(f, result.Evidence)
		}); err != nil {
			return err
		}

		if runXLSX != "" {
			if err := pipeline.WritePatientXLSX(runXLSX, result.Patients); err != nil {
				return eris.Wrap(err, "run: write xlsx")
			}
		}

		if runSave {
			s, err := openStore(cmd)
			if err != nil {
				return eris.Wrap(err, "run: open store")
			}
			defer s.Close()
			if err := s.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := s.SaveRun(cmd.Context(), result); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("run_id", result.RunID))
		}

		return nil
	},
}

func writeCSVFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "run: create %s", path)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return err
	}
	zap.L().Info("wrote file", zap.String("path", path))
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runNotesDir, "notes", "", "directory of .txt notes (required)")
	runCmd.Flags().StringVar(&runMappingCSV, "mapping", "", "mapping CSV (note_id/filename -> patient_id, note_date, note_type)")
	runCmd.Flags().StringVar(&runOutDir, "out", ".", "output directory for CSVs")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "also write the patient table to this .xlsx path")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "parallel note extractions (default from config)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the run to the configured store")
	_ = runCmd.MarkFlagRequired("notes")
	rootCmd.AddCommand(runCmd)
}
