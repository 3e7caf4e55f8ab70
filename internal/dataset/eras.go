package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidEraColumn signals a missing era column or one with empty labels.
// Era grouping is load-bearing for every downstream computation, so this is
// a fatal caller-contract violation.
var ErrInvalidEraColumn = errors.New("dataset: invalid era column")

// EraPartition maps each era label to the row indices belonging to it and
// fixes the chronological ordering of eras. Rows within an era keep their
// original dataset order; every first-half/second-half split downstream
// depends on Order being correct and stable.
type EraPartition struct {
	Order []string
	Rows  map[string][]int
}

// Partition groups the table's rows by era label.
func Partition(t *Table, eraColumn string) (*EraPartition, error) {
	labels, err := t.LabelColumn(eraColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEraColumn, err)
	}
	rows := make(map[string][]int)
	var order []string
	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: empty era label at row %d", ErrInvalidEraColumn, i)
		}
		if _, seen := rows[label]; !seen {
			order = append(order, label)
		}
		rows[label] = append(rows[label], i)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidEraColumn)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return naturalLess(order[i], order[j])
	})
	return &EraPartition{Order: order, Rows: rows}, nil
}

// NumEras returns the number of distinct eras.
func (p *EraPartition) NumEras() int { return len(p.Order) }

// Halves splits the chronological era list into two contiguous halves. With
// an odd era count the extra era goes to the first half.
func (p *EraPartition) Halves() (first, second []string) {
	cut := (len(p.Order) + 1) / 2
	return p.Order[:cut], p.Order[cut:]
}

// naturalLess compares era labels so that embedded digit runs compare
// numerically: era2 sorts before era10. Labels without digits fall back to
// plain lexical order.
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			// Compare whole digit runs numerically.
			ia, ib := i, j
			for ia < len(a) && isDigit(a[ia]) {
				ia++
			}
			for ib < len(b) && isDigit(b[ib]) {
				ib++
			}
			da, db := trimZeros(a[i:ia]), trimZeros(b[j:ib])
			if len(da) != len(db) {
				return len(da) < len(db)
			}
			if da != db {
				return da < db
			}
			i, j = ia, ib
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
