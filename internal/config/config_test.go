package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/eraval/internal/neutralize"
)

func TestDefault_ProductionValues(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "era", cfg.EraColumn)
	assert.Equal(t, "target", cfg.TargetColumn)
	assert.Equal(t, "feature_", cfg.FeaturePrefix)
	assert.Equal(t, "example_preds", cfg.ExampleColumn)
	assert.Equal(t, 50, cfg.TopK)
	assert.Equal(t, 1.0, cfg.Neutralize.Proportion)
	assert.True(t, cfg.Neutralize.Normalize)
	assert.True(t, cfg.FastMode)
	assert.Equal(t, 0.5, cfg.FillValue)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eval.yaml")
	yaml := `
top_k: 10
fast_mode: false
prediction_columns: [preds_model_target]
neutralize:
  proportion: 0.5
  normalize: false
  zero_std: error
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.TopK)
	assert.False(t, cfg.FastMode)
	assert.Equal(t, []string{"preds_model_target"}, cfg.PredictionColumns)
	assert.Equal(t, 0.5, cfg.Neutralize.Proportion)
	assert.False(t, cfg.Neutralize.Normalize)
	assert.Equal(t, neutralize.PolicyError, cfg.Neutralize.ZeroStd)
	// Untouched keys keep their defaults.
	assert.Equal(t, "era", cfg.EraColumn)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Neutralize.Proportion = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.TopK = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.EraColumn = ""
	assert.Error(t, cfg.Validate())
}
