// Package predictor defines the contract for external prediction sources.
// Models are black boxes: the engine only sees the features a model expects
// and the scores it emits.
package predictor

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/evalforge/eraval/internal/dataset"
)

// Predictor is the prediction-source contract. Implementations live outside
// the core (trained gradient-boosted models, remote scorers); Static below
// adapts precomputed score vectors for pipelines and tests.
type Predictor interface {
	Name() string
	ExpectedFeatures() []string
	Predict(features [][]float64) ([]float64, error)
}

// MismatchReport describes a drift between a model's expected features and
// the dataset's available ones. It is a warning, never a failure: prediction
// proceeds on the model's own feature list.
type MismatchReport struct {
	Model   string
	Missing []string // expected by the model, absent from the dataset
	Extra   []string // present in the dataset, unknown to the model
}

// CheckFeatures compares expected and available feature sets. A nil return
// means they match exactly.
func CheckFeatures(model string, expected, available []string) *MismatchReport {
	want := make(map[string]bool, len(expected))
	for _, f := range expected {
		want[f] = true
	}
	have := make(map[string]bool, len(available))
	for _, f := range available {
		have[f] = true
	}
	var missing, extra []string
	for _, f := range expected {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	for _, f := range available {
		if !want[f] {
			extra = append(extra, f)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &MismatchReport{Model: model, Missing: missing, Extra: extra}
}

// Materialize runs a predictor over the table's rows and returns its scores.
// datasetFeatures is the table's full feature-column list; drift between it
// and the model's expected features is logged and reported, not fatal. The
// model predicts on the intersection of its expected features with what the
// dataset offers, in the model's own feature order.
func Materialize(t *dataset.Table, p Predictor, datasetFeatures []string) ([]float64, *MismatchReport, error) {
	expected := p.ExpectedFeatures()
	report := CheckFeatures(p.Name(), expected, datasetFeatures)
	if report != nil {
		log.Warn().Str("model", p.Name()).
			Strs("missing", report.Missing).
			Strs("extra", report.Extra).
			Msg("feature drift detected, consider retraining")
	}
	usable := make([]string, 0, len(expected))
	for _, f := range expected {
		if t.HasColumn(f) {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		return nil, report, fmt.Errorf("predictor: model %s has no usable features", p.Name())
	}

	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	features, err := t.GatherMatrix(usable, rows)
	if err != nil {
		return nil, report, fmt.Errorf("predictor: model %s: %w", p.Name(), err)
	}
	scores, err := p.Predict(features)
	if err != nil {
		return nil, report, fmt.Errorf("predictor: model %s: %w", p.Name(), err)
	}
	if len(scores) != t.Len() {
		return nil, report, fmt.Errorf("predictor: model %s returned %d scores for %d rows", p.Name(), len(scores), t.Len())
	}
	return scores, report, nil
}

// Static adapts a fixed score vector to the Predictor contract. Used for
// precomputed predictions and tests; it ignores the feature matrix beyond
// checking the row count.
type Static struct {
	ModelName string
	Features  []string
	Scores    []float64
}

// Name implements Predictor.
func (s *Static) Name() string { return s.ModelName }

// ExpectedFeatures implements Predictor.
func (s *Static) ExpectedFeatures() []string { return s.Features }

// Predict implements Predictor.
func (s *Static) Predict(features [][]float64) ([]float64, error) {
	if len(features) != len(s.Scores) {
		return nil, fmt.Errorf("predictor: static model %s has %d scores for %d rows", s.ModelName, len(s.Scores), len(features))
	}
	out := make([]float64, len(s.Scores))
	copy(out, s.Scores)
	return out, nil
}
