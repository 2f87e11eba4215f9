// Package pipeline composes the full analysis: load the 5-minute grid
// feed, reduce and aggregate it, run the diagnostics, fit and score the
// model bank on the holdout and project the target series to the horizon.
// Every stage is a function over frames and series; nothing is mutated
// behind the caller's back.
package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives one analysis run.
type Config struct {
	// InputPath is the raw feed CSV.
	InputPath string `yaml:"input_path"`

	// Target is the column being forecast.
	Target string `yaml:"target"`

	// CutoffYear starts the holdout window: rows from this year on are
	// test data.
	CutoffYear int `yaml:"cutoff_year"`

	// SeasonalPeriod is the seasonal lag of the monthly series.
	SeasonalPeriod int `yaml:"seasonal_period"`

	// HorizonEnd is the final projected period, formatted 2006-01.
	HorizonEnd string `yaml:"horizon_end"`

	// Confidence is the prediction-interval level.
	Confidence float64 `yaml:"confidence"`

	// VIFThreshold flags collinear predictors.
	VIFThreshold float64 `yaml:"vif_threshold"`

	// Snapshot and output paths.
	DailySnapshotPath   string `yaml:"daily_snapshot_path"`
	MonthlySnapshotPath string `yaml:"monthly_snapshot_path"`
	ForecastPath        string `yaml:"forecast_path"`
}

// DefaultConfig mirrors the published report: wind generation, holdout
// from 2022, monthly seasonality, projection through December 2030.
func DefaultConfig() *Config {
	return &Config{
		InputPath:           "data/gridwatch.csv",
		Target:              "wind",
		CutoffYear:          2022,
		SeasonalPeriod:      12,
		HorizonEnd:          "2030-12",
		Confidence:          0.95,
		VIFThreshold:        5,
		DailySnapshotPath:   "out/daily.csv",
		MonthlySnapshotPath: "out/monthly.csv",
		ForecastPath:        "out/forecast.csv",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.HorizonEndTime(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HorizonEndTime parses the horizon end into the first day of that month.
func (c *Config) HorizonEndTime() (time.Time, error) {
	ts, err := time.Parse("2006-01", c.HorizonEnd)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid horizon_end %q: %w", c.HorizonEnd, err)
	}
	return ts, nil
}
