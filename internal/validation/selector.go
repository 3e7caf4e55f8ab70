package validation

import (
	"errors"

	"github.com/evalforge/eraval/internal/rank"
)

// ErrEmptyTable signals selection over a stats table with no rows.
var ErrEmptyTable = errors.New("validation: empty stats table")

// Best returns the column with the highest mean per-era correlation. Ties
// break by lexical column name so selection is deterministic.
func Best(t *Table) (string, error) {
	if t.Len() == 0 {
		return "", ErrEmptyTable
	}
	best := ""
	bestMean := 0.0
	for _, name := range t.Names() {
		row, _ := t.Row(name)
		if best == "" || row.Mean > bestMean {
			best, bestMean = name, row.Mean
		}
	}
	return best, nil
}

// Submission converts the winning column's raw scores into the percentile
// rank transform (rank/n, ordinal ties) used for submission formatting.
func Submission(scores []float64) ([]float64, error) {
	return rank.Percentile(scores)
}
