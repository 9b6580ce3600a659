package models

import "fmt"

// ParameterSet is one point in the optimization search grid. It is a value
// object: two sets are the same point iff all four fields are equal, and
// the struct is comparable so it can key aggregation maps directly.
type ParameterSet struct {
	OTMPercent        float64 // short strike distance, % of reference price
	WingWidth         float64 // points between short and long strike
	IntradayChangeMax float64 // trending-day filter threshold, %
	Credit            float64 // collected premium per condor, index points
}

// Validate rejects parameter combinations the P&L model cannot price.
func (p ParameterSet) Validate() error {
	if p.OTMPercent <= 0 || p.OTMPercent > 100 {
		return &InvalidParameterError{Field: "otm_percent", Value: p.OTMPercent, Reason: "must be in (0, 100]"}
	}
	if p.WingWidth <= 0 {
		return &InvalidParameterError{Field: "wing_width", Value: p.WingWidth, Reason: "must be > 0"}
	}
	if p.IntradayChangeMax <= 0 {
		return &InvalidParameterError{Field: "intraday_change_max", Value: p.IntradayChangeMax, Reason: "must be > 0"}
	}
	if p.Credit <= 0 {
		return &InvalidParameterError{Field: "credit", Value: p.Credit, Reason: "must be > 0"}
	}
	if p.Credit > p.WingWidth {
		return &InvalidParameterError{
			Field:  "credit",
			Value:  p.Credit,
			Reason: fmt.Sprintf("exceeds wing width %g, theoretical max loss would be negative", p.WingWidth),
		}
	}
	return nil
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("otm=%.2f%% wing=%.0f maxchg=%.2f%% credit=%.2f",
		p.OTMPercent, p.WingWidth, p.IntradayChangeMax, p.Credit)
}
