package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/eraval/internal/config"
	"github.com/evalforge/eraval/internal/dataset"
	"github.com/evalforge/eraval/internal/predictor"
)

// trainTable holds the drift scenario: feature_a flips sign between the era
// halves, feature_b keeps a constant relationship with the target.
func trainTable(t *testing.T) *dataset.Table {
	t.Helper()
	eras := []string{
		"era1", "era1", "era1",
		"era2", "era2", "era2",
		"era3", "era3", "era3",
		"era4", "era4", "era4",
	}
	tbl := dataset.New(len(eras))
	require.NoError(t, tbl.AddLabelColumn("era", eras))
	require.NoError(t, tbl.AddColumn("feature_a", []float64{0, 0.5, 1, 0, 0.5, 1, 1, 0.5, 0, 1, 0.5, 0}))
	require.NoError(t, tbl.AddColumn("feature_b", []float64{0, 0.5, 1, 0, 0.5, 1, 0, 0.5, 1, 0, 0.5, 1}))
	require.NoError(t, tbl.AddColumn("target", []float64{0, 0.5, 1, 0, 0.5, 1, 0, 0.5, 1, 0, 0.5, 1}))
	return tbl
}

func validTable(t *testing.T) *dataset.Table {
	t.Helper()
	eras := []string{"era121", "era121", "era121", "era122", "era122", "era122"}
	tbl := dataset.New(len(eras))
	require.NoError(t, tbl.AddLabelColumn("era", eras))
	require.NoError(t, tbl.SetIDs([]string{"r0", "r1", "r2", "r3", "r4", "r5"}))
	require.NoError(t, tbl.AddColumn("feature_a", []float64{0.9, 0.1, 0.5, 0.3, 0.8, 0.2}))
	require.NoError(t, tbl.AddColumn("feature_b", []float64{0.2, 0.6, 0.4, 0.7, 0.1, 0.9}))
	require.NoError(t, tbl.AddColumn("target", []float64{0, 0.5, 1, 0, 0.5, 1}))
	require.NoError(t, tbl.AddColumn("preds_model", []float64{0.2, 0.5, 0.8, 0.1, 0.4, 0.9}))
	require.NoError(t, tbl.AddColumn("example_preds", []float64{0.1, 0.2, 0.3, 0.1, 0.2, 0.3}))
	return tbl
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.TopK = 1
	cfg.PredictionColumns = []string{"preds_model"}
	cfg.Workers = 2
	return cfg
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg := testConfig()
	train, valid := trainTable(t), validTable(t)

	res, err := New(cfg).Run(context.Background(), train, valid, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	// feature_a's correlation flips between halves, feature_b's does not.
	assert.Equal(t, []string{"feature_a"}, res.RiskyFeatures)

	assert.Equal(t, []string{"preds_model", "preds_model_neutral_riskiest_1"}, res.PredColumns)
	assert.True(t, valid.HasColumn("preds_model_neutral_riskiest_1"))
	assert.Equal(t, 2, res.Stats.Len())

	// preds_model tracks the target perfectly in every era, so it must win.
	assert.Equal(t, "preds_model", res.BestColumn)
	winner, ok := res.Stats.Row(res.BestColumn)
	require.True(t, ok)
	for _, name := range res.Stats.Names() {
		row, _ := res.Stats.Row(name)
		assert.GreaterOrEqual(t, winner.Mean, row.Mean)
	}

	require.Len(t, res.Submission, valid.Len())
	for _, v := range res.Submission {
		assert.Greater(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPipeline_MaterializesPredictors(t *testing.T) {
	cfg := testConfig()
	train, valid := trainTable(t), validTable(t)

	// The static model expects a feature the dataset no longer has: drift is
	// reported but evaluation continues.
	static := &predictor.Static{
		ModelName: "static",
		Features:  []string{"feature_a", "feature_c"},
		Scores:    []float64{0.9, 0.6, 0.3, 0.8, 0.5, 0.2},
	}

	res, err := New(cfg).Run(context.Background(), train, valid, []predictor.Predictor{static})
	require.NoError(t, err)

	assert.True(t, valid.HasColumn("preds_static"))
	require.Len(t, res.DriftReports, 1)
	assert.Equal(t, []string{"feature_c"}, res.DriftReports[0].Missing)

	_, ok := res.Stats.Row("preds_static")
	assert.True(t, ok)
	_, ok = res.Stats.Row("preds_static_neutral_riskiest_1")
	assert.True(t, ok)

	// The anti-correlated static column must not beat preds_model.
	assert.Equal(t, "preds_model", res.BestColumn)
}

func TestPipeline_FailsWithoutPredictionColumns(t *testing.T) {
	cfg := testConfig()
	cfg.PredictionColumns = nil

	_, err := New(cfg).Run(context.Background(), trainTable(t), validTable(t), nil)
	assert.Error(t, err)
}

func TestPipeline_FailsOnSingleTrainingEra(t *testing.T) {
	cfg := testConfig()
	eras := []string{"era1", "era1", "era1"}
	train := dataset.New(3)
	require.NoError(t, train.AddLabelColumn("era", eras))
	require.NoError(t, train.AddColumn("feature_a", []float64{0, 0.5, 1}))
	require.NoError(t, train.AddColumn("target", []float64{0, 0.5, 1}))

	_, err := New(cfg).Run(context.Background(), train, validTable(t), nil)
	assert.Error(t, err)
}
