// Package rank provides the rank-based transforms shared by feature risk
// ranking, neutralization, and submission formatting.
package rank

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateInput signals an empty input vector, for which no rank
// transform is defined.
var ErrDegenerateInput = errors.New("rank: empty input")

// Uniform maps each value to (rank-0.5)/n with ranks assigned by ascending
// value. Ties break by original position (ordinal), so no two rows receive
// the same rank. The half-unit offset keeps every output strictly inside
// (0,1), which the Gaussian transform depends on.
func Uniform(x []float64) ([]float64, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrDegenerateInput
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	out := make([]float64, n)
	for r, i := range idx {
		out[i] = (float64(r) + 0.5) / float64(n)
	}
	return out, nil
}

// Gaussian applies Uniform and maps the result through the inverse standard
// normal CDF, yielding an approximately standard-normal marginal that
// preserves the input ordering.
func Gaussian(x []float64) ([]float64, error) {
	u, err := Uniform(x)
	if err != nil {
		return nil, err
	}
	for i, v := range u {
		u[i] = distuv.UnitNormal.Quantile(v)
	}
	return u, nil
}

// Percentile maps each value to rank/n in (0,1], ties by ordinal position.
// This matches the submission-format percentile rank, which differs from
// Uniform by the half-unit offset.
func Percentile(x []float64) ([]float64, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrDegenerateInput
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	out := make([]float64, n)
	for r, i := range idx {
		out[i] = float64(r+1) / float64(n)
	}
	return out, nil
}
