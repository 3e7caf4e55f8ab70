// Package pipeline wires the evaluation stages together: risk ranking on
// training eras, neutralization and metrics on validation eras, winner
// selection and submission formatting.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evalforge/eraval/internal/config"
	"github.com/evalforge/eraval/internal/dataset"
	"github.com/evalforge/eraval/internal/neutralize"
	"github.com/evalforge/eraval/internal/predictor"
	"github.com/evalforge/eraval/internal/risk"
	"github.com/evalforge/eraval/internal/validation"
)

// Result is the outcome of one evaluation run.
type Result struct {
	RunID          string
	RiskyFeatures  []string
	Stats          *validation.Table
	BestColumn     string
	Submission     []float64
	DriftReports   []*predictor.MismatchReport
	PredColumns    []string
	NeutralColumns []string
}

// Pipeline runs the full evaluation flow over materialized tables.
type Pipeline struct {
	cfg *config.Config
	log zerolog.Logger
}

// New creates a pipeline from a validated config.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, log: log.With().Str("component", "pipeline").Logger()}
}

// Run evaluates the validation table's prediction columns, plus any columns
// materialized from the given predictors, against the training table's risk
// ranking. The training table drives only the risky-feature list; every
// validation statistic is computed on validation eras alone.
func (p *Pipeline) Run(ctx context.Context, train, valid *dataset.Table, predictors []predictor.Predictor) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	runLog := p.log.With().Str("run_id", res.RunID).Logger()

	trainPart, err := dataset.Partition(train, p.cfg.EraColumn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: partition training data: %w", err)
	}
	validPart, err := dataset.Partition(valid, p.cfg.EraColumn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: partition validation data: %w", err)
	}
	runLog.Info().Int("train_eras", trainPart.NumEras()).Int("valid_eras", validPart.NumEras()).Msg("partitioned eras")

	features := train.FeatureColumns(p.cfg.FeaturePrefix)
	if len(features) == 0 {
		return nil, fmt.Errorf("pipeline: no feature columns with prefix %q", p.cfg.FeaturePrefix)
	}

	// Materialize live predictor columns on the validation table.
	validFeatures := valid.FeatureColumns(p.cfg.FeaturePrefix)
	predColumns := append([]string(nil), p.cfg.PredictionColumns...)
	for _, pr := range predictors {
		scores, report, err := predictor.Materialize(valid, pr, validFeatures)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		if report != nil {
			res.DriftReports = append(res.DriftReports, report)
		}
		column := "preds_" + pr.Name()
		if err := valid.AddColumn(column, scores); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		predColumns = append(predColumns, column)
		runLog.Info().Str("model", pr.Name()).Str("column", column).Msg("materialized predictions")
	}
	if len(predColumns) == 0 {
		return nil, fmt.Errorf("pipeline: no prediction columns to evaluate")
	}

	// Risky features come from training eras only: ranking validation-era
	// drift into the neutralizer set would be look-ahead leakage.
	corrs, err := risk.BuildCorrelationMatrix(train, trainPart, features, p.cfg.TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	risky, err := risk.BiggestChangeFeatures(corrs, p.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	res.RiskyFeatures = risky
	runLog.Info().Int("risky", len(risky)).Msg("ranked risky features")

	// Neutralize each prediction column against the risky set.
	neutral, err := neutralize.Columns(valid, validPart, predColumns, risky, p.cfg.Neutralize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	suffix := fmt.Sprintf("_neutral_riskiest_%d", len(risky))
	for _, column := range predColumns {
		name := column + suffix
		if err := valid.AddColumn(name, neutral[column]); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		res.NeutralColumns = append(res.NeutralColumns, name)
	}
	allColumns := append(append([]string(nil), predColumns...), res.NeutralColumns...)
	res.PredColumns = allColumns

	engine := validation.NewEngine(validation.Config{
		TargetColumn:  p.cfg.TargetColumn,
		ExampleColumn: p.cfg.ExampleColumn,
		FastMode:      p.cfg.FastMode,
		Workers:       p.cfg.Workers,
	})
	stats, err := engine.Compute(ctx, valid, validPart, allColumns, validFeatures)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	res.Stats = stats
	logStats(runLog, stats)

	best, err := validation.Best(stats)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	res.BestColumn = best
	runLog.Info().Str("column", best).Msg("selected highest-mean column")

	scores, err := valid.Column(best)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	res.Submission, err = validation.Submission(scores)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return res, nil
}

// logStats emits the mean/sharpe comparison the way the upstream pipeline
// prints its stats table.
func logStats(l zerolog.Logger, stats *validation.Table) {
	for _, name := range stats.Names() {
		row, _ := stats.Row(name)
		l.Info().Str("column", name).
			Float64("mean", row.Mean).
			Float64("std", row.Std).
			Float64("sharpe", row.Sharpe).
			Msg("validation stats")
	}
}
