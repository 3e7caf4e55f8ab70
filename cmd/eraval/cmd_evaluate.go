package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evalforge/eraval/internal/config"
	"github.com/evalforge/eraval/internal/dataset"
	"github.com/evalforge/eraval/internal/pipeline"
)

var (
	evalConfigPath string
	evalTrainPath  string
	evalValidPath  string
	evalOutputPath string
)

// evaluateCmd runs the full evaluation pipeline from materialized CSV files
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate prediction columns and emit a ranked submission",
	Long: `Evaluate runs the full pipeline: per-era feature/target correlations on
the training file, risky-feature ranking, neutralization of each prediction
column in the validation file, per-era validation statistics, and winner
selection. The winning column is percentile-ranked and written as an
id,prediction CSV.

Example usage:
  eraval evaluate --train train.csv --validation validation.csv
  eraval evaluate --config eval.yaml --output submission.csv`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalConfigPath, "config", "", "Path to YAML run configuration (defaults apply when omitted)")
	evaluateCmd.Flags().StringVar(&evalTrainPath, "train", "", "Path to training data CSV")
	evaluateCmd.Flags().StringVar(&evalValidPath, "validation", "", "Path to validation data CSV")
	evaluateCmd.Flags().StringVar(&evalOutputPath, "output", "submission.csv", "Path for the ranked submission CSV")
	_ = evaluateCmd.MarkFlagRequired("train")
	_ = evaluateCmd.MarkFlagRequired("validation")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if evalConfigPath != "" {
		loaded, err := config.Load(evalConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := dataset.LoadOptions{
		EraColumn:     cfg.EraColumn,
		IDColumn:      cfg.IDColumn,
		LabelColumns:  []string{"data_type"},
		FeaturePrefix: cfg.FeaturePrefix,
		FillValue:     cfg.FillValue,
	}
	train, err := dataset.LoadCSV(evalTrainPath, opts)
	if err != nil {
		return err
	}
	valid, err := dataset.LoadCSV(evalValidPath, opts)
	if err != nil {
		return err
	}
	log.Info().Int("train_rows", train.Len()).Int("valid_rows", valid.Len()).Msg("loaded datasets")

	result, err := pipeline.New(cfg).Run(context.Background(), train, valid, nil)
	if err != nil {
		return err
	}

	printStats(result)

	if err := dataset.WriteSubmission(evalOutputPath, valid.IDs(), result.Submission); err != nil {
		return err
	}
	log.Info().Str("path", evalOutputPath).Str("column", result.BestColumn).Msg("wrote submission")
	return nil
}

// printStats renders the mean/sharpe comparison table on stdout.
func printStats(result *pipeline.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tMEAN\tSTD\tSHARPE")
	for _, name := range result.Stats.Names() {
		row, _ := result.Stats.Row(name)
		marker := ""
		if name == result.BestColumn {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%.6f\t%.6f\t%.4f\n", name, marker, row.Mean, row.Std, row.Sharpe)
	}
	w.Flush()
}
