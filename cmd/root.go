package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/phenotype-cli/internal/config"
	"github.com/sells-group/phenotype-cli/internal/recognize"
	"github.com/sells-group/phenotype-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "phenotype-cli",
	Short: "Breast-cancer phenotyping pipeline",
	Long:  "Extracts structured biomarker records (ER/PR/HER2/Ki-67, histology, grade, stage) from free-text clinical notes and aggregates them into one record per patient.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newRecognizer builds the rule recognizer, applying the configured YAML
// overlay when present.
func newRecognizer() (*recognize.RuleRecognizer, error) {
	if cfg.Pipeline.RulesFile == "" {
		return recognize.New(), nil
	}
	extra, err := recognize.LoadRules(cfg.Pipeline.RulesFile)
	if err != nil {
		return nil, err
	}
	return recognize.New(recognize.WithExtraRules(extra)), nil
}

// openStore opens the configured persistence backend.
func openStore(cmd *cobra.Command) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(cmd.Context(), cfg.Store.DatabaseURL)
	default:
		return store.NewSQLite(cfg.Store.Path)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
