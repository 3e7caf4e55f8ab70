// Package config holds the YAML run configuration for an evaluation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evalforge/eraval/internal/neutralize"
)

// Config describes one evaluation run.
type Config struct {
	EraColumn     string `yaml:"era_column"`
	TargetColumn  string `yaml:"target_column"`
	IDColumn      string `yaml:"id_column"`
	FeaturePrefix string `yaml:"feature_prefix"`
	ExampleColumn string `yaml:"example_column"`

	// PredictionColumns are precomputed score columns in the validation
	// file that enter the comparison alongside any live predictors.
	PredictionColumns []string `yaml:"prediction_columns"`

	// TopK is the number of riskiest features to neutralize against.
	TopK int `yaml:"top_k"`

	Neutralize neutralize.Config `yaml:"neutralize"`

	// FastMode skips the slower feature-exposure and baseline metrics.
	FastMode bool `yaml:"fast_mode"`
	// Workers bounds per-era parallelism in metrics computation.
	Workers int `yaml:"workers"`
	// FillValue replaces missing feature cells at load time.
	FillValue float64 `yaml:"fill_value"`
}

// Default returns the production defaults of the upstream tournament
// pipeline: era/target/feature_ naming, top 50 risky features, full
// normalized neutralization, fast-mode metrics.
func Default() *Config {
	return &Config{
		EraColumn:     "era",
		TargetColumn:  "target",
		IDColumn:      "id",
		FeaturePrefix: "feature_",
		ExampleColumn: "example_preds",
		TopK:          50,
		Neutralize:    neutralize.DefaultConfig(),
		FastMode:      true,
		Workers:       1,
		FillValue:     0.5,
	}
}

// Load reads a YAML file over the defaults. A missing file is an error; use
// Default directly when no file is wanted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot honor.
func (c *Config) Validate() error {
	if c.EraColumn == "" {
		return fmt.Errorf("era_column must be set")
	}
	if c.TargetColumn == "" {
		return fmt.Errorf("target_column must be set")
	}
	if c.FeaturePrefix == "" {
		return fmt.Errorf("feature_prefix must be set")
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k must be >= 0, got %d", c.TopK)
	}
	if c.Neutralize.Proportion < 0 || c.Neutralize.Proportion > 1 {
		return fmt.Errorf("neutralize.proportion must be in [0,1], got %v", c.Neutralize.Proportion)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}
