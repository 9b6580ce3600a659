package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/config"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/storage"
)

var (
	cfgFile string
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "condor",
	Short: "0DTE Iron Condor backtesting and parameter optimization for the EuroStoxx 50",
	Long: `condor replays a daily short Iron Condor strategy over historical
EuroStoxx 50 prices, compares an unconditional variant against a
trending-day filter, and searches the parameter grid with walk-forward
validation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "summary output only")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Environment.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)
	if quietMode(cfg) {
		// Keep tables readable: only warnings and errors interleave.
		if level > logrus.WarnLevel {
			logger.SetLevel(logrus.WarnLevel)
		}
	}
	return cfg, logger, nil
}

func quietMode(cfg *config.Config) bool {
	return quiet || cfg.Report.Quiet
}

// openSource builds the configured bar source. The returned closer releases
// the database handle for the sqlite source and is a no-op otherwise.
func openSource(cfg *config.Config, logger *logrus.Logger) (marketdata.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Data.Source {
	case "csv":
		return &marketdata.CSVSource{Path: cfg.Data.CSVPath}, noop, nil

	case "sqlite":
		store, err := storage.NewStore(cfg.Data.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return &storage.BarSource{Store: store, Symbol: cfg.Data.Symbol}, store.Close, nil

	case "http":
		timeout, err := cfg.Data.HTTP.TimeoutDuration()
		if err != nil {
			return nil, nil, err
		}
		src, err := marketdata.NewHTTPSource(marketdata.HTTPSourceSettings{
			BaseURL:        cfg.Data.HTTP.BaseURL,
			Timeout:        timeout,
			RequestsPerSec: cfg.Data.HTTP.RequestsPerSec,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data source %q", cfg.Data.Source)
	}
}

// resolveRange applies --start/--end flag overrides to the configured
// backtest range.
func resolveRange(cfg *config.Config, startFlag, endFlag string) (start, end time.Time, err error) {
	start, _ = cfg.Backtest.StartDate()
	end, _ = cfg.Backtest.EndDate()

	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return start, end, fmt.Errorf("invalid --start (expected YYYY-MM-DD): %w", err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return start, end, fmt.Errorf("invalid --end (expected YYYY-MM-DD): %w", err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

// openRunStore opens the run-history database when one is configured,
// regardless of the bar source. Returns nil when no db_path is set.
func openRunStore(cfg *config.Config) (*storage.Store, error) {
	if cfg.Data.DBPath == "" {
		return nil, nil
	}
	return storage.NewStore(cfg.Data.DBPath)
}
