package dataset

import (
	"fmt"
	"strings"
)

// Table is a column-oriented tabular dataset: float64 value columns plus
// categorical label columns (era, data_type). It is the single source of
// truth for an evaluation run; derived columns are attached fresh and
// existing columns are never mutated in place.
type Table struct {
	n      int
	ids    []string
	order  []string
	cols   map[string][]float64
	labels map[string][]string
}

// New creates an empty table expecting n rows per column.
func New(n int) *Table {
	return &Table{
		n:      n,
		order:  make([]string, 0),
		cols:   make(map[string][]float64),
		labels: make(map[string][]string),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// SetIDs attaches row identifiers (used for submission export).
func (t *Table) SetIDs(ids []string) error {
	if len(ids) != t.n {
		return fmt.Errorf("dataset: id count %d != row count %d", len(ids), t.n)
	}
	t.ids = ids
	return nil
}

// IDs returns row identifiers, or nil if none were attached.
func (t *Table) IDs() []string { return t.ids }

// AddColumn attaches a new float column. Replacing an existing column is an
// error: derived columns get new names instead.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != t.n {
		return fmt.Errorf("dataset: column %q has %d values, want %d", name, len(values), t.n)
	}
	if t.has(name) {
		return fmt.Errorf("dataset: column %q already exists", name)
	}
	t.cols[name] = values
	t.order = append(t.order, name)
	return nil
}

// AddLabelColumn attaches a new categorical column.
func (t *Table) AddLabelColumn(name string, values []string) error {
	if len(values) != t.n {
		return fmt.Errorf("dataset: column %q has %d values, want %d", name, len(values), t.n)
	}
	if t.has(name) {
		return fmt.Errorf("dataset: column %q already exists", name)
	}
	t.labels[name] = values
	t.order = append(t.order, name)
	return nil
}

func (t *Table) has(name string) bool {
	if _, ok := t.cols[name]; ok {
		return true
	}
	_, ok := t.labels[name]
	return ok
}

// HasColumn reports whether a float column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns a float column by name.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown column %q", name)
	}
	return col, nil
}

// LabelColumn returns a categorical column by name.
func (t *Table) LabelColumn(name string) ([]string, error) {
	col, ok := t.labels[name]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown label column %q", name)
	}
	return col, nil
}

// Columns returns all column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// FeatureColumns returns float columns whose name carries the feature
// prefix, in insertion order.
func (t *Table) FeatureColumns(prefix string) []string {
	var out []string
	for _, name := range t.order {
		if _, ok := t.cols[name]; ok && strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Gather copies the values of a float column at the given row indices.
func (t *Table) Gather(name string, rows []int) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = col[r]
	}
	return out, nil
}

// GatherMatrix copies several float columns at the given row indices into a
// row-major matrix of shape len(rows) x len(names).
func (t *Table) GatherMatrix(names []string, rows []int) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][r]
		}
		out[i] = row
	}
	return out, nil
}
