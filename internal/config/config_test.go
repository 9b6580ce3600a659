package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/optimize"
)

const validYAML = `
environment:
  log_level: debug

data:
  source: csv
  symbol: SX5E
  csv_path: testdata/bars.csv

backtest:
  start: 2022-01-03
  end: 2024-12-31
  multiplier: 10
  parameters:
    otm_percent: 1.0
    wing_width: 50
    intraday_change_max: 1.0
    credit: 2.5

optimize:
  train_months: 6
  test_months: 2
  workers: 4
  robustness_threshold: 0.5
  grid:
    otm_percents: [0.5, 1.0]
    wing_widths: [50]
    intraday_change_maxs: [1.0]
    credits: [2.5, 3.0]

report:
  output_path: out/report.csv
  quiet: false

dashboard:
  enabled: true
  listen_addr: ":8080"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Environment.LogLevel)
	assert.Equal(t, "SX5E", cfg.Data.Symbol)
	assert.Equal(t, 10.0, cfg.Backtest.Multiplier)
	assert.Equal(t, 4, cfg.Optimize.Workers)

	start, err := cfg.Backtest.StartDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), start)

	ps := cfg.Backtest.Parameters.ParameterSet()
	assert.Equal(t, 1.0, ps.OTMPercent)
	assert.Equal(t, 2.5, ps.Credit)

	grid := cfg.Optimize.Grid.Grid()
	assert.Equal(t, 4, grid.Size())
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  source: csv
  csv_path: bars.csv
backtest:
  start: 2023-01-02
  end: 2023-12-29
`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Environment.LogLevel)
	assert.Equal(t, "SX5E", cfg.Data.Symbol)
	assert.Equal(t, 10.0, cfg.Backtest.Multiplier)
	assert.Equal(t, 6, cfg.Optimize.TrainMonths)
	assert.Equal(t, 2, cfg.Optimize.TestMonths)
	assert.Equal(t, 0.5, cfg.Optimize.RobustnessThreshold)
	// Empty grid falls back to the built-in default grid.
	assert.Greater(t, cfg.Optimize.Grid.Grid().Size(), 0)
}

func TestLoadDefaultsGridAxesIndependently(t *testing.T) {
	// Overriding one axis must not disturb the defaults of the others.
	cfg, err := Load(writeConfig(t, `
data:
  source: csv
  csv_path: bars.csv
backtest:
  start: 2023-01-02
  end: 2023-12-29
optimize:
  grid:
    otm_percents: [1.0]
`))
	require.NoError(t, err)

	grid := cfg.Optimize.Grid.Grid()
	def := optimize.DefaultGrid()
	assert.Equal(t, []float64{1.0}, grid.OTMPercents)
	assert.Equal(t, def.WingWidths, grid.WingWidths)
	assert.Equal(t, def.IntradayChangeMaxs, grid.IntradayChangeMaxs)
	assert.Equal(t, def.Credits, grid.Credits)
	assert.Equal(t, 1*len(def.WingWidths)*len(def.IntradayChangeMaxs)*len(def.Credits), grid.Size())
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("BARS_PATH", "/data/sx5e.csv")
	cfg, err := Load(writeConfig(t, `
data:
  source: csv
  csv_path: ${BARS_PATH}
backtest:
  start: 2023-01-02
  end: 2023-12-29
`))
	require.NoError(t, err)
	assert.Equal(t, "/data/sx5e.csv", cfg.Data.CSVPath)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, `
data:
  source: csv
  csv_path: bars.csv
  wrong_field: true
backtest:
  start: 2023-01-02
  end: 2023-12-29
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Environment.LogLevel = "verbose" }},
		{"bad source", func(c *Config) { c.Data.Source = "ftp" }},
		{"csv without path", func(c *Config) { c.Data.CSVPath = "" }},
		{"bad start date", func(c *Config) { c.Backtest.Start = "03/01/2022" }},
		{"end before start", func(c *Config) { c.Backtest.End = "2021-01-01" }},
		{"bad multiplier", func(c *Config) { c.Backtest.Multiplier = -1 }},
		{"bad train months", func(c *Config) { c.Optimize.TrainMonths = -6 }},
		{"bad grid axis", func(c *Config) { c.Optimize.Grid.Credits = []float64{-2.5} }},
		{"dashboard without addr", func(c *Config) {
			c.Dashboard.Enabled = true
			c.Dashboard.ListenAddr = ""
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHTTPSourceValidation(t *testing.T) {
	t.Run("missing base url", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
data:
  source: http
backtest:
  start: 2023-01-02
  end: 2023-12-29
`))
		assert.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		yaml := `
data:
  source: http
  http:
    base_url: https://bars.example.com
    timeout: ten seconds
backtest:
  start: 2023-01-02
  end: 2023-12-29
`
		_, err := Load(writeConfig(t, yaml))
		assert.Error(t, err)
	})

	t.Run("valid timeout parses", func(t *testing.T) {
		yaml := `
data:
  source: http
  http:
    base_url: https://bars.example.com
    timeout: 45s
backtest:
  start: 2023-01-02
  end: 2023-12-29
`
		cfg, err := Load(writeConfig(t, yaml))
		require.NoError(t, err)
		d, err := cfg.Data.HTTP.TimeoutDuration()
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, d)
	})
}
