// Package report renders backtest and optimization results: a console
// table for humans, a delimited file for downstream tooling.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/backtest"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/optimize"
)

// WriteBacktest prints the summary of one backtest run. Unless quiet is
// set, the per-day trade ledger of the filtered variant follows the
// summary.
func WriteBacktest(w io.Writer, result *backtest.Result, quiet bool) {
	fmt.Fprintf(w, "\nBacktest %s  %s to %s\n",
		result.RunID, result.Start.Format("2006-01-02"), result.End.Format("2006-01-02"))
	fmt.Fprintf(w, "Parameters: %s\n\n", result.Params.String())

	table := tablewriter.NewWriter(w)
	table.Header("Variant", "Trades", "Wins", "Losses", "Win rate", "Total P&L")
	for _, ledger := range []*backtest.Ledger{result.Always, result.Filtered} {
		table.Append(
			string(ledger.Variant),
			strconv.Itoa(len(ledger.Trades)),
			strconv.Itoa(ledger.Wins),
			strconv.Itoa(ledger.Losses),
			fmt.Sprintf("%.1f%%", ledger.WinRate()*100),
			fmt.Sprintf("%.2f", ledger.TotalPnL),
		)
	}
	table.Render()

	if result.DataErrors > 0 {
		fmt.Fprintf(w, "Dropped %d day(s) with bad price data.\n", result.DataErrors)
	}

	if quiet {
		return
	}

	fmt.Fprintln(w, "\nFiltered ledger:")
	detail := tablewriter.NewWriter(w)
	detail.Header("Date", "Strikes", "Credit", "Settle", "P&L")
	for _, trade := range result.Filtered.Trades {
		detail.Append(
			trade.EntryDate.Format("2006-01-02"),
			trade.Strikes.String(),
			fmt.Sprintf("%.2f", trade.Credit),
			fmt.Sprintf("%.2f", trade.SettlementPrice),
			fmt.Sprintf("%.2f", trade.PnL),
		)
	}
	detail.Render()
}

// WriteOptimization prints the ranked optimization report. Unless quiet is
// set, failed units are enumerated after the ranking.
func WriteOptimization(w io.Writer, report *optimize.Report, quiet bool) {
	fmt.Fprintf(w, "\nOptimization %s  %s to %s  (train %dm / test %dm, %d windows, grid %d)\n",
		report.RunID,
		report.Start.Format("2006-01-02"), report.End.Format("2006-01-02"),
		report.TrainMonths, report.TestMonths, report.WindowCount, report.GridSize)

	table := tablewriter.NewWriter(w)
	table.Header("#", "OTM%", "Wing", "MaxChg%", "Credit", "IS Sortino", "OOS Sortino", "Robustness", "Windows", "Pick")
	for i, row := range report.Rows {
		table.Append(optimizationRow(i, row)...)
	}
	table.Render()

	if report.Top != nil && report.OverfitWarning {
		fmt.Fprintf(w, "\nWARNING: top candidate robustness %s is below %.2f, likely overfit to the training windows.\n",
			robustnessLabel(report.Top.MeanRobustness, report.Top.RobustnessDefined), report.RobustnessThreshold)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\n%d unit(s) failed and were excluded from ranking.\n", len(report.Failures))
		if !quiet {
			for _, f := range report.Failures {
				fmt.Fprintf(w, "  window %d  %s: %s\n", f.WindowIndex, f.Params.String(), f.Reason)
			}
		}
	}
	fmt.Fprintf(w, "\nCompleted in %s.\n", report.Elapsed.Round(time.Millisecond))
}

func optimizationRow(rank int, row optimize.Aggregate) []any {
	pick := ""
	if row.Recommended {
		pick = "<=="
	}
	return []any{
		strconv.Itoa(rank + 1),
		fmt.Sprintf("%.2f", row.Params.OTMPercent),
		fmt.Sprintf("%.0f", row.Params.WingWidth),
		fmt.Sprintf("%.2f", row.Params.IntradayChangeMax),
		fmt.Sprintf("%.2f", row.Params.Credit),
		fmt.Sprintf("%.4f", row.MeanTrainSortino),
		fmt.Sprintf("%.4f", row.MeanTestSortino),
		robustnessLabel(row.MeanRobustness, row.RobustnessDefined),
		strconv.Itoa(row.Windows),
		pick,
	}
}

// robustnessLabel renders an undefined robustness as n/a, never as zero.
func robustnessLabel(value float64, defined bool) string {
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", value)
}

// ExportOptimizationCSV writes the ranked report as a delimited file, one
// row per parameter set.
func ExportOptimizationCSV(path string, report *optimize.Report) error {
	f, err := os.Create(path) // #nosec G304 -- destination comes from user configuration
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := writeOptimizationCSV(f, report); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeOptimizationCSV(w io.Writer, report *optimize.Report) error {
	cw := csv.NewWriter(w)
	header := []string{
		"rank", "otm_percent", "wing_width", "intraday_change_max", "credit",
		"in_sample_sortino", "out_of_sample_sortino", "robustness", "windows", "recommended",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range report.Rows {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(row.Params.OTMPercent, 'f', 2, 64),
			strconv.FormatFloat(row.Params.WingWidth, 'f', 0, 64),
			strconv.FormatFloat(row.Params.IntradayChangeMax, 'f', 2, 64),
			strconv.FormatFloat(row.Params.Credit, 'f', 2, 64),
			strconv.FormatFloat(row.MeanTrainSortino, 'f', 6, 64),
			strconv.FormatFloat(row.MeanTestSortino, 'f', 6, 64),
			robustnessLabel(row.MeanRobustness, row.RobustnessDefined),
			strconv.Itoa(row.Windows),
			strconv.FormatBool(row.Recommended),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
