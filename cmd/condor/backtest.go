package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/backtest"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/config"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/report"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/storage"
)

var (
	backtestStart string
	backtestEnd   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the configured parameter set over the historical range",
	Long: `Run both strategy variants over the configured date range: one that
enters a condor every trading day and one that skips trending days. The
two ledgers make the filter's contribution directly comparable.`,
	RunE: runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestStart, "start", "", "override backtest.start, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "override backtest.end, YYYY-MM-DD")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, _ []string) error {
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

	start, end, err := resolveRange(cfg, backtestStart, backtestEnd)
	if err != nil {
		return err
	}

	series, err := marketdata.Load(ctx, source, start, end)
	if err != nil {
		return fmt.Errorf("loading price series: %w", err)
	}

	runner, err := backtest.NewRunner(series, cfg.Backtest.Multiplier, logger)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, start, end, cfg.Backtest.Parameters.ParameterSet())
	if err != nil {
		return err
	}

	report.WriteBacktest(cmd.OutOrStdout(), result, quietMode(cfg))

	return saveBacktestRun(ctx, cfg, result)
}

// saveBacktestRun records the run in the history database when one is
// configured.
func saveBacktestRun(ctx context.Context, cfg *config.Config, result *backtest.Result) error {
	store, err := openRunStore(cfg)
	if err != nil || store == nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	return store.SaveRun(ctx, storage.RunSummary{
		ID:     result.RunID,
		Kind:   "backtest",
		Symbol: cfg.Data.Symbol,
		Start:  result.Start,
		End:    result.End,
		Summary: fmt.Sprintf("always pnl %.2f (%d trades), filtered pnl %.2f (%d trades)",
			result.Always.TotalPnL, len(result.Always.Trades),
			result.Filtered.TotalPnL, len(result.Filtered.Trades)),
	})
}
