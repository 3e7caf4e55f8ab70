package risk

import (
	"errors"
	"sort"
)

// ErrInsufficientEras signals fewer than two eras, which makes the
// first-half/second-half drift comparison impossible.
var ErrInsufficientEras = errors.New("risk: need at least 2 eras to split")

// BiggestChangeFeatures ranks features descending by the absolute difference
// between their mean correlation in the first half of the era timeline and
// in the second half, returning the top k names. With an odd era count the
// extra era goes to the first half. Ties keep original feature-column order.
func BiggestChangeFeatures(m *CorrelationMatrix, k int) ([]string, error) {
	if len(m.Eras) < 2 {
		return nil, ErrInsufficientEras
	}
	cut := (len(m.Eras) + 1) / 2
	first, second := m.Eras[:cut], m.Eras[cut:]

	diffs := make([]float64, len(m.Features))
	for j := range m.Features {
		a := meanAt(m, first, j)
		b := meanAt(m, second, j)
		d := a - b
		if d < 0 {
			d = -d
		}
		diffs[j] = d
	}

	idx := make([]int, len(m.Features))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return diffs[idx[a]] > diffs[idx[b]] })

	if k > len(idx) {
		k = len(idx)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = m.Features[idx[i]]
	}
	return out, nil
}

func meanAt(m *CorrelationMatrix, eras []string, j int) float64 {
	sum := 0.0
	for _, era := range eras {
		sum += m.vals[era][j]
	}
	return sum / float64(len(eras))
}
