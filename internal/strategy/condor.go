// Package strategy prices the Iron Condor: strike construction from a
// reference price and settlement P&L at expiration.
package strategy

import (
	"math"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/util"
)

// strikeTick is the grid strikes are placed on. Index options on the
// EuroStoxx 50 list whole-point strikes.
const strikeTick = 1.0

// ComputeStrikes derives the four condor legs from the day's reference
// price. Short strikes are placed otmPercent away from the reference and
// rounded to the nearest whole point, ties away from zero (see
// util.RoundToTick); long strikes sit wingWidth points beyond them.
func ComputeStrikes(referencePrice, otmPercent, wingWidth float64) (models.StrikeSet, error) {
	if referencePrice <= 0 {
		return models.StrikeSet{}, &models.InvalidParameterError{
			Field: "reference_price", Value: referencePrice, Reason: "must be > 0",
		}
	}
	if otmPercent <= 0 || otmPercent > 100 {
		return models.StrikeSet{}, &models.InvalidParameterError{
			Field: "otm_percent", Value: otmPercent, Reason: "must be in (0, 100]",
		}
	}
	if wingWidth <= 0 {
		return models.StrikeSet{}, &models.InvalidParameterError{
			Field: "wing_width", Value: wingWidth, Reason: "must be > 0",
		}
	}

	shortCall := util.RoundToTick(referencePrice*(1+otmPercent/100), strikeTick)
	shortPut := util.RoundToTick(referencePrice*(1-otmPercent/100), strikeTick)

	strikes := models.StrikeSet{
		ShortPut:  shortPut,
		ShortCall: shortCall,
		LongPut:   shortPut - wingWidth,
		LongCall:  shortCall + wingWidth,
	}
	if err := strikes.Validate(); err != nil {
		return models.StrikeSet{}, err
	}
	return strikes, nil
}

// Outcome is the settled result of one condor.
type Outcome struct {
	PnL     float64
	MaxLoss float64
}

// Settle computes the expiration P&L of one Iron Condor.
//
//   - settlement inside the short strikes: full credit retained
//   - settlement beyond a short strike: credit minus the in-the-money
//     distance, capped at the wing width
//
// The worst case is always -(wing - credit) * multiplier; MaxLoss reports
// that bound for position sizing. A credit above the wing width implies a
// negative theoretical max loss and is rejected.
func Settle(strikes models.StrikeSet, credit, settlementPrice, multiplier float64) (Outcome, error) {
	if err := strikes.Validate(); err != nil {
		return Outcome{}, err
	}
	wing := strikes.WingWidth()
	if credit <= 0 {
		return Outcome{}, &models.InvalidParameterError{Field: "credit", Value: credit, Reason: "must be > 0"}
	}
	if credit > wing {
		return Outcome{}, &models.InvalidParameterError{
			Field: "credit", Value: credit, Reason: "exceeds wing width, max loss would be negative",
		}
	}
	if multiplier <= 0 {
		return Outcome{}, &models.InvalidParameterError{Field: "multiplier", Value: multiplier, Reason: "must be > 0"}
	}
	if settlementPrice <= 0 {
		return Outcome{}, &models.MarketDataError{Reason: "settlement price must be > 0"}
	}

	var lossPoints float64
	switch {
	case settlementPrice < strikes.ShortPut:
		lossPoints = math.Min(strikes.ShortPut-settlementPrice, wing)
	case settlementPrice > strikes.ShortCall:
		lossPoints = math.Min(settlementPrice-strikes.ShortCall, wing)
	}

	return Outcome{
		PnL:     (credit - lossPoints) * multiplier,
		MaxLoss: (wing - credit) * multiplier,
	}, nil
}
