package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/storage"
)

var (
	importFile  string
	importStart string
	importEnd   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import daily bars from a CSV file into the local database",
	Long: `Parse a date,open,high,low,close CSV file and upsert the bars into
the configured SQLite database. Re-importing an overlapping range
overwrites the affected days, so corrected exports can simply be
imported again.`,
	RunE: runImportCmd,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "csv", "", "CSV file to import (default: data.csv_path)")
	importCmd.Flags().StringVar(&importStart, "start", "1900-01-01", "first date to import, YYYY-MM-DD")
	importCmd.Flags().StringVar(&importEnd, "end", "2999-12-31", "last date to import, YYYY-MM-DD")
	rootCmd.AddCommand(importCmd)
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Data.DBPath == "" {
		return fmt.Errorf("import requires data.db_path in the config")
	}

	path := importFile
	if path == "" {
		path = cfg.Data.CSVPath
	}
	if path == "" {
		return fmt.Errorf("no CSV file: pass --csv or set data.csv_path")
	}

	start, err := time.Parse("2006-01-02", importStart)
	if err != nil {
		return fmt.Errorf("invalid --start (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", importEnd)
	if err != nil {
		return fmt.Errorf("invalid --end (expected YYYY-MM-DD): %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--end must not be before --start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := &marketdata.CSVSource{Path: path}
	bars, err := source.Bars(ctx, start, end)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s within %s..%s", path, importStart, importEnd)
	}

	store, err := storage.NewStore(cfg.Data.DBPath)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if err := store.SaveBars(ctx, cfg.Data.Symbol, bars); err != nil {
		return err
	}

	total, err := store.BarCount(ctx, cfg.Data.Symbol)
	if err != nil {
		return err
	}

	logger.WithField("imported", len(bars)).Info("import complete")
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bars for %s (%d total in %s)\n",
		len(bars), cfg.Data.Symbol, total, cfg.Data.DBPath)
	return nil
}
