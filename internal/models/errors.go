package models

import (
	"fmt"
	"time"
)

// InvalidParameterError reports a strike, credit, or sizing input that is
// outside its valid domain. It is fatal to the unit that produced it but
// never to sibling units of an optimization run.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Field, e.Value, e.Reason)
}

// MarketDataError reports bad or unusable price data for a single trading
// day. The affected day is skipped and logged; the run continues.
type MarketDataError struct {
	Date   time.Time
	Reason string
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data error on %s: %s", e.Date.Format("2006-01-02"), e.Reason)
}

// InsufficientDataError reports a date range too short to fit even one
// walk-forward window. It is fatal to the whole optimization run and is
// raised before any grid work begins.
type InsufficientDataError struct {
	Start          time.Time
	End            time.Time
	RequiredMonths int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("date range %s to %s too short for walk-forward validation: at least %d months required",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.RequiredMonths)
}
