// Package models defines the value objects shared by the backtesting and
// optimization engine: price bars, strike sets, parameter sets, and trade
// records. All of them are immutable once constructed.
package models

import "time"

// PriceBar is one trading day of index data. High and Low are only
// meaningful when HasIntraday is true; historical feeds frequently omit
// them, and the engine falls back to the open-to-close change.
type PriceBar struct {
	Date        time.Time
	Open        float64
	Close       float64
	High        float64
	Low         float64
	HasIntraday bool
}

// ChangePercent returns the open-to-close change of the day as a signed
// percentage of the open. This is the trending-day proxy used throughout
// the backtest: true intraday ranges are not available for most of the
// historical series, so the open-to-close move stands in for them. This is
// a documented approximation, applied identically to every simulated day.
func (b PriceBar) ChangePercent() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// DateKey returns the bar date formatted as a stable map/storage key.
func (b PriceBar) DateKey() string {
	return b.Date.Format("2006-01-02")
}
