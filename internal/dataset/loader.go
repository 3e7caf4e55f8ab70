package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadOptions controls CSV ingestion.
type LoadOptions struct {
	EraColumn     string
	IDColumn      string
	LabelColumns  []string // extra categorical columns, e.g. data_type
	FeaturePrefix string
	FillValue     float64 // substituted for empty/NaN feature cells
}

// LoadCSV reads a materialized tabular file into a Table. The era column and
// any configured label columns stay categorical; every other column is
// parsed as float64. Missing feature cells are filled with FillValue (the
// upstream pipeline fills live-round gaps with 0.5) and the fill count is
// logged so silent data problems stay visible.
func LoadCSV(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset: %s has no data rows", path)
	}

	header := records[0]
	rows := records[1:]
	n := len(rows)

	categorical := make(map[string]bool, 1+len(opts.LabelColumns))
	categorical[opts.EraColumn] = true
	for _, name := range opts.LabelColumns {
		categorical[name] = true
	}

	t := New(n)
	filled := 0
	for j, name := range header {
		switch {
		case name == opts.IDColumn && name != "":
			ids := make([]string, n)
			for i := range rows {
				ids[i] = rows[i][j]
			}
			if err := t.SetIDs(ids); err != nil {
				return nil, err
			}
		case categorical[name]:
			vals := make([]string, n)
			for i := range rows {
				vals[i] = rows[i][j]
			}
			if err := t.AddLabelColumn(name, vals); err != nil {
				return nil, err
			}
		default:
			vals := make([]float64, n)
			isFeature := opts.FeaturePrefix != "" && strings.HasPrefix(name, opts.FeaturePrefix)
			for i := range rows {
				cell := strings.TrimSpace(rows[i][j])
				if cell == "" || strings.EqualFold(cell, "nan") {
					if !isFeature {
						return nil, fmt.Errorf("dataset: missing value in column %q row %d", name, i)
					}
					vals[i] = opts.FillValue
					filled++
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("dataset: column %q row %d: %w", name, i, err)
				}
				vals[i] = v
			}
			if err := t.AddColumn(name, vals); err != nil {
				return nil, err
			}
		}
	}

	if filled > 0 {
		log.Warn().Str("path", path).Int("filled", filled).Float64("fill_value", opts.FillValue).
			Msg("filled missing feature cells")
	} else {
		log.Debug().Str("path", path).Int("rows", n).Msg("no missing feature cells")
	}
	return t, nil
}

// WriteSubmission writes an id,prediction CSV for the final percentile-ranked
// column. Row identifiers fall back to the row index when the source file
// carried none.
func WriteSubmission(path string, ids []string, prediction []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "prediction"}); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}
	for i, v := range prediction {
		id := strconv.Itoa(i)
		if ids != nil {
			id = ids[i]
		}
		if err := w.Write([]string{id, strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return fmt.Errorf("dataset: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("dataset: flush %s: %w", path, err)
	}
	return nil
}
