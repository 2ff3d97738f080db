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
	exportRunID    string
	exportFormat   string
	exportOutDir   string
	exportEvidence bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored run to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		patients, err := st.GetPatients(ctx, exportRunID)
		if err != nil {
			return eris.Wrap(err, "export: get patients")
		}

		switch exportFormat {
		case "csv":
			if err := writeCSVFile(filepath.Join(exportOutDir, "patient_phenotypes_v1.csv"), func(f *os.File) error {
				return pipeline.WritePatientCSV(f, patients)
			}); err != nil {
				return err
			}
		case "xlsx":
			path := filepath.Join(exportOutDir, "patient_phenotypes_v1.xlsx")
			if err := pipeline.WritePatientXLSX(path, patients); err != nil {
				return err
			}
			zap.L().Info("wrote file", zap.String("path", path))
		default:
			return eris.Errorf("export: unknown format %q (want csv or xlsx)", exportFormat)
		}

		if exportEvidence {
			evidence, err := st.GetEvidence(ctx, exportRunID)
			if err != nil {
				return eris.Wrap(err, "export: get evidence")
			}
			if err := writeCSVFile(filepath.Join(exportOutDir, "extraction_evidence.csv"), func(f *os.File) error {
				return pipeline.WriteEvidenceCSV(f, evidence)
			}); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run id to export (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOutDir, "out", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportEvidence, "evidence", false, "also export the evidence audit trail CSV")
	_ = exportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportCmd)
}
