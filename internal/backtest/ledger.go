// Package backtest simulates daily 0DTE Iron Condor trading over a
// historical price series and produces per-day ledgers plus summary
// statistics for the always-trade and filtered strategy variants.
package backtest

import "github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"

// Variant names one of the two parallel simulations of a run.
type Variant string

const (
	// VariantAlways enters every valid trading day regardless of the
	// trending-day filter.
	VariantAlways Variant = "always"
	// VariantFiltered only enters days the trending-day filter passes.
	VariantFiltered Variant = "filtered"
)

// Ledger is the ordered trade history of one strategy variant across a
// backtest window. The runner owns and appends to it during the run; once
// returned it is read-only.
type Ledger struct {
	Variant  Variant
	Trades   []models.TradeRecord
	Wins     int
	Losses   int
	TotalPnL float64
}

func newLedger(variant Variant) *Ledger {
	return &Ledger{Variant: variant}
}

func (l *Ledger) add(t models.TradeRecord) {
	l.Trades = append(l.Trades, t)
	l.TotalPnL += t.PnL
	switch {
	case t.PnL > 0:
		l.Wins++
	case t.PnL < 0:
		l.Losses++
	}
}

// Returns yields the per-trade P&L sequence, the input to the
// risk-adjusted ranking metrics.
func (l *Ledger) Returns() []float64 {
	out := make([]float64, len(l.Trades))
	for i, t := range l.Trades {
		out[i] = t.PnL
	}
	return out
}

// WinRate returns the fraction of settled trades that were profitable.
func (l *Ledger) WinRate() float64 {
	if len(l.Trades) == 0 {
		return 0
	}
	return float64(l.Wins) / float64(len(l.Trades))
}
