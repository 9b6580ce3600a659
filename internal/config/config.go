// Package config provides configuration management for the backtesting and
// optimization tool.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/optimize"
)

const (
	// defaultMultiplier is the EuroStoxx 50 index option contract
	// multiplier (EUR per index point), used when backtest.multiplier is
	// unset.
	defaultMultiplier = 10.0
	// defaultTrainMonths is used when optimize.train_months is unset.
	defaultTrainMonths = 6
	// defaultTestMonths is used when optimize.test_months is unset.
	defaultTestMonths = 2
	// defaultSymbol is used when data.symbol is unset.
	defaultSymbol = "SX5E"

	dateLayout = "2006-01-02"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Data        DataConfig        `yaml:"data"`
	Backtest    BacktestConfig    `yaml:"backtest"`
	Optimize    OptimizeConfig    `yaml:"optimize"`
	Report      ReportConfig      `yaml:"report"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// DataConfig selects where daily price bars come from.
type DataConfig struct {
	Source  string     `yaml:"source"` // csv | sqlite | http
	Symbol  string     `yaml:"symbol"`
	CSVPath string     `yaml:"csv_path"`
	DBPath  string     `yaml:"db_path"`
	HTTP    HTTPConfig `yaml:"http"`
}

// HTTPConfig defines the remote bar download endpoint.
type HTTPConfig struct {
	Timeout        string  `yaml:"timeout"` // Go duration string, e.g. "30s"
	BaseURL        string  `yaml:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
}

// TimeoutDuration parses the configured request timeout. Zero means "use
// the source's default".
func (h HTTPConfig) TimeoutDuration() (time.Duration, error) {
	if h.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(h.Timeout)
}

// BacktestConfig defines the date range and the single parameter set for a
// plain backtest run.
type BacktestConfig struct {
	Start      string           `yaml:"start"` // YYYY-MM-DD
	End        string           `yaml:"end"`   // YYYY-MM-DD
	Multiplier float64          `yaml:"multiplier"`
	Parameters ParametersConfig `yaml:"parameters"`
}

// ParametersConfig is one Iron Condor parameter set.
type ParametersConfig struct {
	OTMPercent        float64 `yaml:"otm_percent"`
	WingWidth         float64 `yaml:"wing_width"`
	IntradayChangeMax float64 `yaml:"intraday_change_max"`
	Credit            float64 `yaml:"credit"`
}

// OptimizeConfig defines the walk-forward optimization run.
type OptimizeConfig struct {
	TrainMonths         int        `yaml:"train_months"`
	TestMonths          int        `yaml:"test_months"`
	Workers             int        `yaml:"workers"` // 0 = number of CPUs
	RobustnessThreshold float64    `yaml:"robustness_threshold"`
	Grid                GridConfig `yaml:"grid"`
}

// GridConfig enumerates the parameter axes of the optimization grid. Empty
// axes fall back to the built-in default grid.
type GridConfig struct {
	OTMPercents        []float64 `yaml:"otm_percents"`
	WingWidths         []float64 `yaml:"wing_widths"`
	IntradayChangeMaxs []float64 `yaml:"intraday_change_maxs"`
	Credits            []float64 `yaml:"credits"`
}

// ReportConfig controls result rendering.
type ReportConfig struct {
	OutputPath string `yaml:"output_path"` // optional CSV destination
	Quiet      bool   `yaml:"quiet"`
}

// DashboardConfig controls the optional read-only HTTP dashboard.
type DashboardConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Data.Symbol == "" {
		c.Data.Symbol = defaultSymbol
	}
	if c.Backtest.Multiplier == 0 {
		c.Backtest.Multiplier = defaultMultiplier
	}
	if c.Optimize.TrainMonths == 0 {
		c.Optimize.TrainMonths = defaultTrainMonths
	}
	if c.Optimize.TestMonths == 0 {
		c.Optimize.TestMonths = defaultTestMonths
	}
	if c.Optimize.RobustnessThreshold == 0 {
		c.Optimize.RobustnessThreshold = optimize.DefaultRobustnessThreshold
	}
	// Each grid axis is overridable on its own; unset axes keep their
	// documented defaults.
	def := optimize.DefaultGrid()
	if len(c.Optimize.Grid.OTMPercents) == 0 {
		c.Optimize.Grid.OTMPercents = def.OTMPercents
	}
	if len(c.Optimize.Grid.WingWidths) == 0 {
		c.Optimize.Grid.WingWidths = def.WingWidths
	}
	if len(c.Optimize.Grid.IntradayChangeMaxs) == 0 {
		c.Optimize.Grid.IntradayChangeMaxs = def.IntradayChangeMaxs
	}
	if len(c.Optimize.Grid.Credits) == 0 {
		c.Optimize.Grid.Credits = def.Credits
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be debug, info, warn, or error")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path is required when data.source is csv")
		}
	case "sqlite":
		if c.Data.DBPath == "" {
			return fmt.Errorf("data.db_path is required when data.source is sqlite")
		}
	case "http":
		if c.Data.HTTP.BaseURL == "" {
			return fmt.Errorf("data.http.base_url is required when data.source is http")
		}
		if _, err := c.Data.HTTP.TimeoutDuration(); err != nil {
			return fmt.Errorf("data.http.timeout: %w", err)
		}
	default:
		return fmt.Errorf("data.source must be csv, sqlite, or http")
	}

	if _, err := c.Backtest.StartDate(); err != nil {
		return fmt.Errorf("backtest.start: %w", err)
	}
	end, err := c.Backtest.EndDate()
	if err != nil {
		return fmt.Errorf("backtest.end: %w", err)
	}
	start, _ := c.Backtest.StartDate()
	if end.Before(start) {
		return fmt.Errorf("backtest.end %s is before backtest.start %s", c.Backtest.End, c.Backtest.Start)
	}
	if c.Backtest.Multiplier <= 0 {
		return fmt.Errorf("backtest.multiplier must be > 0")
	}

	if c.Optimize.TrainMonths <= 0 {
		return fmt.Errorf("optimize.train_months must be > 0")
	}
	if c.Optimize.TestMonths <= 0 {
		return fmt.Errorf("optimize.test_months must be > 0")
	}
	if c.Optimize.Workers < 0 {
		return fmt.Errorf("optimize.workers must be >= 0")
	}
	if c.Optimize.RobustnessThreshold <= 0 {
		return fmt.Errorf("optimize.robustness_threshold must be > 0")
	}
	if err := c.Optimize.Grid.Grid().Validate(); err != nil {
		return fmt.Errorf("optimize.grid: %w", err)
	}

	if c.Dashboard.Enabled && c.Dashboard.ListenAddr == "" {
		return fmt.Errorf("dashboard.listen_addr is required when dashboard.enabled is true")
	}

	return nil
}

// StartDate parses backtest.start.
func (b BacktestConfig) StartDate() (time.Time, error) {
	return time.Parse(dateLayout, b.Start)
}

// EndDate parses backtest.end.
func (b BacktestConfig) EndDate() (time.Time, error) {
	return time.Parse(dateLayout, b.End)
}

// ParameterSet converts the configured single-run parameters to the model
// type. Validation happens where the set is used.
func (p ParametersConfig) ParameterSet() models.ParameterSet {
	return models.ParameterSet{
		OTMPercent:        p.OTMPercent,
		WingWidth:         p.WingWidth,
		IntradayChangeMax: p.IntradayChangeMax,
		Credit:            p.Credit,
	}
}

// Grid converts the configured axes to an optimization grid.
func (g GridConfig) Grid() optimize.Grid {
	return optimize.Grid{
		OTMPercents:        g.OTMPercents,
		WingWidths:         g.WingWidths,
		IntradayChangeMaxs: g.IntradayChangeMaxs,
		Credits:            g.Credits,
	}
}
