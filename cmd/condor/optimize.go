package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/config"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/dashboard"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/optimize"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/report"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/storage"
)

var (
	optimizeOut    string
	optimizeServe  bool
	optimizeStart  string
	optimizeEnd    string
	optimizeTrainM int
	optimizeTestM  int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search the parameter grid with walk-forward validation",
	Long: `Evaluate every grid point across rolling train/test windows, rank the
candidates by out-of-sample Sortino, and flag parameter sets whose
in-sample edge does not survive out of sample.`,
	RunE: runOptimizeCmd,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeOut, "out", "", "write the ranked report as CSV to this path")
	optimizeCmd.Flags().BoolVar(&optimizeServe, "serve", false, "keep serving the report on the dashboard after the run")
	optimizeCmd.Flags().StringVar(&optimizeStart, "start", "", "override backtest.start, YYYY-MM-DD")
	optimizeCmd.Flags().StringVar(&optimizeEnd, "end", "", "override backtest.end, YYYY-MM-DD")
	optimizeCmd.Flags().IntVar(&optimizeTrainM, "train-months", 0, "override optimize.train_months")
	optimizeCmd.Flags().IntVar(&optimizeTestM, "test-months", 0, "override optimize.test_months")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimizeCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource() //nolint:errcheck // read-only handle

	start, end, err := resolveRange(cfg, optimizeStart, optimizeEnd)
	if err != nil {
		return err
	}

	trainMonths, testMonths := cfg.Optimize.TrainMonths, cfg.Optimize.TestMonths
	if optimizeTrainM > 0 {
		trainMonths = optimizeTrainM
	}
	if optimizeTestM > 0 {
		testMonths = optimizeTestM
	}

	series, err := marketdata.Load(ctx, source, start, end)
	if err != nil {
		return fmt.Errorf("loading price series: %w", err)
	}

	optimizer, err := optimize.New(series, optimize.Settings{
		Grid:                cfg.Optimize.Grid.Grid(),
		TrainMonths:         trainMonths,
		TestMonths:          testMonths,
		Multiplier:          cfg.Backtest.Multiplier,
		Workers:             cfg.Optimize.Workers,
		RobustnessThreshold: cfg.Optimize.RobustnessThreshold,
	}, logger)
	if err != nil {
		return err
	}

	result, err := optimizer.Run(ctx, start, end)
	if err != nil {
		return err
	}

	report.WriteOptimization(cmd.OutOrStdout(), result, quietMode(cfg))

	outPath := optimizeOut
	if outPath == "" {
		outPath = cfg.Report.OutputPath
	}
	if outPath != "" {
		if err := report.ExportOptimizationCSV(outPath, result); err != nil {
			return err
		}
		logger.WithField("path", outPath).Info("wrote report CSV")
	}

	if err := saveOptimizeRun(ctx, cfg, result); err != nil {
		return err
	}

	if optimizeServe && cfg.Dashboard.Enabled {
		return serveReport(ctx, cfg, result, logger)
	}
	return nil
}

func saveOptimizeRun(ctx context.Context, cfg *config.Config, result *optimize.Report) error {
	store, err := openRunStore(cfg)
	if err != nil || store == nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	summary := fmt.Sprintf("%d windows, grid %d, %d failures", result.WindowCount, result.GridSize, len(result.Failures))
	if result.Top != nil {
		summary = fmt.Sprintf("top %s, oos sortino %.4f; %s", result.Top.Params.String(), result.Top.MeanTestSortino, summary)
	}

	return store.SaveRun(ctx, storage.RunSummary{
		ID:      result.RunID,
		Kind:    "optimize",
		Symbol:  cfg.Data.Symbol,
		Start:   result.Start,
		End:     result.End,
		Summary: summary,
	})
}

// serveReport publishes the finished report on the dashboard and blocks
// until interrupted.
func serveReport(ctx context.Context, cfg *config.Config, result *optimize.Report, logger *logrus.Logger) error {
	store, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close() //nolint:errcheck
	}

	server := dashboard.NewServer(cfg.Dashboard.ListenAddr, store, logger)
	server.PublishReport(result)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
