// Package risk ranks features by how much their correlation with the target
// drifts between the early and late halves of the era timeline.
package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/evalforge/eraval/internal/dataset"
)

// CorrelationMatrix holds the per-era Pearson correlation of each feature
// against the target. Built once per (dataset, target) pair; immutable
// afterward.
type CorrelationMatrix struct {
	Eras     []string
	Features []string
	vals     map[string][]float64 // era -> correlations aligned with Features
}

// BuildCorrelationMatrix computes feature/target correlations era by era.
// Each era is computed only from its own rows; no cross-era state.
func BuildCorrelationMatrix(t *dataset.Table, part *dataset.EraPartition, features []string, target string) (*CorrelationMatrix, error) {
	m := &CorrelationMatrix{
		Eras:     append([]string(nil), part.Order...),
		Features: append([]string(nil), features...),
		vals:     make(map[string][]float64, part.NumEras()),
	}
	for _, era := range part.Order {
		rows := part.Rows[era]
		tgt, err := t.Gather(target, rows)
		if err != nil {
			return nil, fmt.Errorf("risk: era %s: %w", era, err)
		}
		corrs := make([]float64, len(features))
		for j, feature := range features {
			vals, err := t.Gather(feature, rows)
			if err != nil {
				return nil, fmt.Errorf("risk: era %s: %w", era, err)
			}
			corrs[j] = Pearson(vals, tgt)
		}
		m.vals[era] = corrs
	}
	return m, nil
}

// Corr returns the stored correlation for one (era, feature) cell.
func (m *CorrelationMatrix) Corr(era, feature string) (float64, bool) {
	row, ok := m.vals[era]
	if !ok {
		return 0, false
	}
	for j, name := range m.Features {
		if name == feature {
			return row[j], true
		}
	}
	return 0, false
}

// Row returns the correlation vector for one era, aligned with Features.
func (m *CorrelationMatrix) Row(era string) ([]float64, bool) {
	row, ok := m.vals[era]
	return row, ok
}

// Pearson computes the Pearson correlation of two equal-length vectors.
// A zero-variance side yields 0 rather than NaN: a constant column carries
// no predictive signal and must not poison downstream means.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}
