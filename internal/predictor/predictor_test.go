package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/eraval/internal/dataset"
)

func featureTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New(3)
	require.NoError(t, tbl.AddLabelColumn("era", []string{"era1", "era1", "era2"}))
	require.NoError(t, tbl.AddColumn("feature_a", []float64{0.1, 0.2, 0.3}))
	require.NoError(t, tbl.AddColumn("feature_b", []float64{0.4, 0.5, 0.6}))
	return tbl
}

func TestCheckFeatures_ExactMatchIsNil(t *testing.T) {
	assert.Nil(t, CheckFeatures("m", []string{"a", "b"}, []string{"b", "a"}))
}

func TestCheckFeatures_ReportsDrift(t *testing.T) {
	report := CheckFeatures("m", []string{"a", "c"}, []string{"a", "b", "d"})
	require.NotNil(t, report)
	assert.Equal(t, "m", report.Model)
	assert.Equal(t, []string{"c"}, report.Missing)
	assert.Equal(t, []string{"b", "d"}, report.Extra)
}

func TestMaterialize_MatchingFeatures(t *testing.T) {
	tbl := featureTable(t)
	p := &Static{ModelName: "model_target", Features: []string{"feature_a", "feature_b"}, Scores: []float64{0.3, 0.1, 0.2}}

	scores, report, err := Materialize(tbl, p, tbl.FeatureColumns("feature_"))
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, []float64{0.3, 0.1, 0.2}, scores)
}

func TestMaterialize_DriftIsReportedNotFatal(t *testing.T) {
	tbl := featureTable(t)
	p := &Static{ModelName: "model_target", Features: []string{"feature_a", "feature_c"}, Scores: []float64{0.3, 0.1, 0.2}}

	scores, report, err := Materialize(tbl, p, tbl.FeatureColumns("feature_"))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, []string{"feature_c"}, report.Missing)
	assert.Equal(t, []string{"feature_b"}, report.Extra)
	assert.Len(t, scores, tbl.Len())
}

func TestMaterialize_NoUsableFeaturesFails(t *testing.T) {
	tbl := featureTable(t)
	p := &Static{ModelName: "m", Features: []string{"feature_x"}, Scores: []float64{1, 2, 3}}

	_, _, err := Materialize(tbl, p, tbl.FeatureColumns("feature_"))
	assert.Error(t, err)
}

func TestMaterialize_RowCountMismatchFails(t *testing.T) {
	tbl := featureTable(t)
	p := &Static{ModelName: "m", Features: []string{"feature_a"}, Scores: []float64{1, 2}}

	_, _, err := Materialize(tbl, p, tbl.FeatureColumns("feature_"))
	assert.Error(t, err)
}
