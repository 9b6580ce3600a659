package models

import "time"

// TradeRecord is one settled hypothetical Iron Condor. A record is created
// once per simulated trading day and is immutable after settlement. Each
// record belongs to exactly one simulation ledger.
type TradeRecord struct {
	EntryDate       time.Time
	Strikes         StrikeSet
	Credit          float64
	SettlementPrice float64
	PnL             float64
	MaxLoss         float64
	// WasFiltered marks days the trending-day filter would have blocked.
	// Only meaningful on the always-trade ledger; the filtered ledger never
	// contains blocked days in the first place.
	WasFiltered bool
}

// Win reports whether the trade settled profitable.
func (t TradeRecord) Win() bool {
	return t.PnL > 0
}
