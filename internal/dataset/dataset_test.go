package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AddAndGather(t *testing.T) {
	tbl := New(4)
	require.NoError(t, tbl.AddColumn("feature_a", []float64{1, 2, 3, 4}))
	require.NoError(t, tbl.AddColumn("feature_b", []float64{5, 6, 7, 8}))
	require.NoError(t, tbl.AddLabelColumn("era", []string{"e1", "e1", "e2", "e2"}))

	got, err := tbl.Gather("feature_a", []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, got)

	m, err := tbl.GatherMatrix([]string{"feature_a", "feature_b"}, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 6}, {4, 8}}, m)

	assert.Equal(t, []string{"feature_a", "feature_b"}, tbl.FeatureColumns("feature_"))
	assert.Equal(t, []string{"feature_a", "feature_b", "era"}, tbl.Columns())
}

func TestTable_RejectsDuplicatesAndBadLengths(t *testing.T) {
	tbl := New(2)
	require.NoError(t, tbl.AddColumn("x", []float64{1, 2}))

	assert.Error(t, tbl.AddColumn("x", []float64{3, 4}))
	assert.Error(t, tbl.AddLabelColumn("x", []string{"a", "b"}))
	assert.Error(t, tbl.AddColumn("y", []float64{1}))

	_, err := tbl.Column("missing")
	assert.Error(t, err)
}

func TestLoadCSV_ParsesColumnsAndFillsMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	csv := "id,era,data_type,feature_a,feature_b,target\n" +
		"r1,era1,train,0.25,,0.5\n" +
		"r2,era1,train,0.75,1.0,0.75\n" +
		"r3,era2,train,0.5,0.0,0.25\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	tbl, err := LoadCSV(path, LoadOptions{
		EraColumn:     "era",
		IDColumn:      "id",
		LabelColumns:  []string{"data_type"},
		FeaturePrefix: "feature_",
		FillValue:     0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"r1", "r2", "r3"}, tbl.IDs())

	fb, err := tbl.Column("feature_b")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0, 0.0}, fb)

	eras, err := tbl.LabelColumn("era")
	require.NoError(t, err)
	assert.Equal(t, []string{"era1", "era1", "era2"}, eras)
}

func TestLoadCSV_MissingNonFeatureCellFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	csv := "era,feature_a,target\nera1,0.5,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, err := LoadCSV(path, LoadOptions{EraColumn: "era", FeaturePrefix: "feature_", FillValue: 0.5})
	assert.Error(t, err)
}

func TestWriteSubmission_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub.csv")

	require.NoError(t, WriteSubmission(path, []string{"a", "b"}, []float64{0.5, 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,prediction\na,0.5\nb,1\n", string(data))
}
