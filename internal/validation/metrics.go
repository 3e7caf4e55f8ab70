// Package validation computes per-era performance statistics for competing
// prediction columns and selects the winner.
package validation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/evalforge/eraval/internal/dataset"
	"github.com/evalforge/eraval/internal/rank"
	"github.com/evalforge/eraval/internal/risk"
)

// Row holds the aggregate statistics for one prediction column.
type Row struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Sharpe float64 `json:"sharpe"`

	// Populated only when fast mode is off.
	MaxFeatureExposure float64 `json:"max_feature_exposure,omitempty"`
	CorrWithExample    float64 `json:"corr_with_example,omitempty"`

	PerEra []float64 `json:"-"`
}

// Table collects Rows keyed by prediction-column name. Append-only until the
// caller sorts or selects; iteration order is up to the caller.
type Table struct {
	rows map[string]Row
}

// NewTable creates an empty stats table.
func NewTable() *Table {
	return &Table{rows: make(map[string]Row)}
}

// Append adds a row. Re-appending an existing column is a caller bug.
func (t *Table) Append(r Row) error {
	if _, ok := t.rows[r.Column]; ok {
		return fmt.Errorf("validation: duplicate stats row for %q", r.Column)
	}
	t.rows[r.Column] = r
	return nil
}

// Row looks up one column's statistics.
func (t *Table) Row(column string) (Row, bool) {
	r, ok := t.rows[column]
	return r, ok
}

// Names returns all column names in lexical order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.rows))
	for name := range t.rows {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Config tunes the metrics engine.
type Config struct {
	TargetColumn  string `yaml:"target_column"`
	ExampleColumn string `yaml:"example_column"`
	// FastMode skips the feature-exposure and baseline-comparison passes,
	// which cost O(features x eras) per column.
	FastMode bool `yaml:"fast_mode"`
	// Workers bounds the per-era parallelism. <=1 runs sequentially.
	Workers int `yaml:"workers"`
}

// Engine computes the validation stats table.
type Engine struct {
	cfg Config
}

// NewEngine creates a metrics engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg}
}

// Compute builds one stats row per prediction column. Per-era correlations
// are independent across eras and run on a bounded worker pool; results are
// reassembled in chronological era order, so output is deterministic.
func (e *Engine) Compute(ctx context.Context, t *dataset.Table, part *dataset.EraPartition, predColumns, featureColumns []string) (*Table, error) {
	tbl := NewTable()
	for _, column := range predColumns {
		row, err := e.computeColumn(ctx, t, part, column, featureColumns)
		if err != nil {
			return nil, err
		}
		if err := tbl.Append(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (e *Engine) computeColumn(ctx context.Context, t *dataset.Table, part *dataset.EraPartition, column string, featureColumns []string) (Row, error) {
	perEra := make([]float64, part.NumEras())
	exposures := make([]float64, part.NumEras())
	exampleCorrs := make([]float64, part.NumEras())

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, era := range part.Order {
		i, era := i, era
		g.Go(func() error {
			rows := part.Rows[era]
			pred, err := t.Gather(column, rows)
			if err != nil {
				return fmt.Errorf("validation: era %s: %w", era, err)
			}
			tgt, err := t.Gather(e.cfg.TargetColumn, rows)
			if err != nil {
				return fmt.Errorf("validation: era %s: %w", era, err)
			}
			ranked, err := rank.Uniform(pred)
			if err != nil {
				return fmt.Errorf("validation: era %s: %w", era, err)
			}
			perEra[i] = risk.Pearson(ranked, tgt)

			if e.cfg.FastMode {
				return nil
			}
			maxExpo := 0.0
			for _, feature := range featureColumns {
				vals, err := t.Gather(feature, rows)
				if err != nil {
					return fmt.Errorf("validation: era %s: %w", era, err)
				}
				if c := math.Abs(risk.Pearson(pred, vals)); c > maxExpo {
					maxExpo = c
				}
			}
			exposures[i] = maxExpo

			if e.cfg.ExampleColumn != "" && e.cfg.ExampleColumn != column && t.HasColumn(e.cfg.ExampleColumn) {
				example, err := t.Gather(e.cfg.ExampleColumn, rows)
				if err != nil {
					return fmt.Errorf("validation: era %s: %w", era, err)
				}
				exampleCorrs[i] = risk.Pearson(pred, example)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Row{}, err
	}

	mean := stat.Mean(perEra, nil)
	std := stat.PopStdDev(perEra, nil)
	row := Row{
		Column: column,
		Mean:   mean,
		Std:    std,
		Sharpe: sharpe(mean, std),
		PerEra: perEra,
	}
	if !e.cfg.FastMode {
		row.MaxFeatureExposure = maxOf(exposures)
		row.CorrWithExample = stat.Mean(exampleCorrs, nil)
	}
	return row, nil
}

// sharpe is mean/std with std == 0 mapped to 0. A flat per-era series has no
// meaningful consistency ratio and must not produce Inf or abort the batch.
func sharpe(mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return mean / std
}

func maxOf(xs []float64) float64 {
	out := 0.0
	for _, x := range xs {
		if x > out {
			out = x
		}
	}
	return out
}
