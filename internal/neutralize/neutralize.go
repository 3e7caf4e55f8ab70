// Package neutralize removes a prediction column's linear exposure to a set
// of features via per-era least-squares projection.
package neutralize

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/evalforge/eraval/internal/dataset"
	"github.com/evalforge/eraval/internal/rank"
)

// ErrDegenerateEra signals a zero-variance era blocking the unit-std rescale.
// Only raised under PolicyError; the default policy emits a zero vector for
// the era instead, so one bad era cannot abort a multi-era batch.
var ErrDegenerateEra = errors.New("neutralize: zero standard deviation within era")

// ZeroStdPolicy selects how a zero-variance era is handled during rescaling.
type ZeroStdPolicy string

const (
	// PolicyZero emits the zero vector for the degenerate era.
	PolicyZero ZeroStdPolicy = "zero"
	// PolicyError aborts the whole batch with ErrDegenerateEra.
	PolicyError ZeroStdPolicy = "error"
)

// Config tunes the neutralization pass.
type Config struct {
	// Proportion blends raw and fully orthogonalized scores: 0 is a no-op,
	// 1 removes the full projection.
	Proportion float64 `yaml:"proportion"`
	// Normalize applies the Gaussian-quantile rank transform to each score
	// column within each era before projecting.
	Normalize bool `yaml:"normalize"`
	// ZeroStd picks the degenerate-era policy. Empty means PolicyZero.
	ZeroStd ZeroStdPolicy `yaml:"zero_std"`
}

// DefaultConfig mirrors the production neutralization settings: full
// orthogonalization of rank-gaussianized scores.
func DefaultConfig() Config {
	return Config{Proportion: 1.0, Normalize: true, ZeroStd: PolicyZero}
}

func (c Config) validate() error {
	if c.Proportion < 0 || c.Proportion > 1 {
		return fmt.Errorf("neutralize: proportion %v outside [0,1]", c.Proportion)
	}
	switch c.ZeroStd {
	case PolicyZero, PolicyError, "":
		return nil
	default:
		return fmt.Errorf("neutralize: unknown zero-std policy %q", c.ZeroStd)
	}
}

// Columns neutralizes the named prediction columns against the neutralizer
// features, era by era, and returns one fresh output vector per input column
// in original row order. Source columns are never modified. Each era is
// processed independently; nothing computed in one era affects another.
func Columns(t *dataset.Table, part *dataset.EraPartition, columns, neutralizers []string, cfg Config) (map[string][]float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ZeroStd == "" {
		cfg.ZeroStd = PolicyZero
	}

	out := make(map[string][]float64, len(columns))
	for _, name := range columns {
		if _, err := t.Column(name); err != nil {
			return nil, err
		}
		out[name] = make([]float64, t.Len())
	}

	for _, era := range part.Order {
		rows := part.Rows[era]
		scores, err := gatherScores(t, columns, rows, cfg.Normalize)
		if err != nil {
			return nil, fmt.Errorf("neutralize: era %s: %w", era, err)
		}

		if len(neutralizers) > 0 && cfg.Proportion > 0 {
			expo, err := t.GatherMatrix(neutralizers, rows)
			if err != nil {
				return nil, fmt.Errorf("neutralize: era %s: %w", era, err)
			}
			if err := subtractProjection(scores, expo, cfg.Proportion); err != nil {
				return nil, fmt.Errorf("neutralize: era %s: %w", era, err)
			}
		}

		for j, name := range columns {
			col := scores[j]
			sd := stat.PopStdDev(col, nil)
			if sd == 0 {
				if cfg.ZeroStd == PolicyError {
					return nil, fmt.Errorf("%w: era %s column %s", ErrDegenerateEra, era, name)
				}
				for _, r := range rows {
					out[name][r] = 0
				}
				continue
			}
			for i, r := range rows {
				out[name][r] = col[i] / sd
			}
		}
	}
	return out, nil
}

// gatherScores extracts the era's score vectors, one per column, optionally
// rank-gaussianized within the era.
func gatherScores(t *dataset.Table, columns []string, rows []int, normalize bool) ([][]float64, error) {
	scores := make([][]float64, len(columns))
	for j, name := range columns {
		col, err := t.Gather(name, rows)
		if err != nil {
			return nil, err
		}
		if normalize {
			col, err = rank.Gaussian(col)
			if err != nil {
				return nil, err
			}
		}
		scores[j] = col
	}
	return scores, nil
}

// subtractProjection replaces each score vector s with s - p * E pinv(E) s,
// where E is the era's neutralizer matrix. The projection uses an SVD-based
// Moore-Penrose pseudoinverse with a relative singular-value cutoff so
// collinear or rank-deficient neutralizer sets stay numerically stable.
func subtractProjection(scores [][]float64, expo [][]float64, proportion float64) error {
	n := len(expo)
	if n == 0 {
		return nil
	}
	f := len(expo[0])

	e := mat.NewDense(n, f, nil)
	for i, row := range expo {
		e.SetRow(i, row)
	}
	s := mat.NewDense(n, len(scores), nil)
	for j, col := range scores {
		s.SetCol(j, col)
	}

	coef, err := pinvMul(e, s)
	if err != nil {
		return err
	}

	var proj mat.Dense
	proj.Mul(e, coef)
	for j, col := range scores {
		for i := range col {
			col[i] -= proportion * proj.At(i, j)
		}
	}
	return nil
}

// pinvMul computes pinv(a) * b via thin SVD. Singular values below
// rcond * s_max are treated as zero (numerical rank cutoff).
func pinvMul(a, b *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, errors.New("neutralize: SVD failed to converge")
	}
	sv := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rows, cols := a.Dims()
	dim := rows
	if cols > dim {
		dim = cols
	}
	const eps = 2.220446049250313e-16
	tol := float64(dim) * eps * sv[0]

	// ut = U^T b, then scale row i by 1/s_i (or drop it below the cutoff).
	var ut mat.Dense
	ut.Mul(u.T(), b)
	r, c := ut.Dims()
	for i := 0; i < r; i++ {
		inv := 0.0
		if sv[i] > tol {
			inv = 1 / sv[i]
		}
		for j := 0; j < c; j++ {
			ut.Set(i, j, ut.At(i, j)*inv)
		}
	}

	var out mat.Dense
	out.Mul(&v, &ut)
	return &out, nil
}
