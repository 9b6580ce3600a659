// Package optimize searches the Iron Condor parameter space with
// walk-forward validation and ranks candidates by out-of-sample,
// risk-adjusted performance.
package optimize

import (
	"fmt"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// warnCombinations is the grid size above which enumeration logs a
// diagnostic. Large grids still run; the warning exists because the cost
// grows as grid x windows x days.
const warnCombinations = 10000

// Grid holds the enumerated candidate values of each tunable parameter.
// Candidates are explicit lists, not implicit ranges, so a config can pin
// exactly the points it wants tested.
type Grid struct {
	OTMPercents        []float64
	WingWidths         []float64
	IntradayChangeMaxs []float64
	Credits            []float64
}

// Validate checks every axis is non-empty and every candidate is inside its
// domain. Credit/wing cross constraints are deferred to per-set validation
// so one bad pairing fails a unit, not the whole grid.
func (g Grid) Validate() error {
	axes := []struct {
		name   string
		values []float64
		max    float64
	}{
		{"otm_percent", g.OTMPercents, 100},
		{"wing_width", g.WingWidths, 0},
		{"intraday_change_max", g.IntradayChangeMaxs, 0},
		{"credit", g.Credits, 0},
	}
	for _, axis := range axes {
		if len(axis.values) == 0 {
			return fmt.Errorf("grid axis %s has no candidate values", axis.name)
		}
		for _, v := range axis.values {
			if v <= 0 {
				return &models.InvalidParameterError{Field: axis.name, Value: v, Reason: "must be > 0"}
			}
			if axis.max > 0 && v > axis.max {
				return &models.InvalidParameterError{Field: axis.name, Value: v, Reason: fmt.Sprintf("must be <= %g", axis.max)}
			}
		}
	}
	return nil
}

// Size returns the grid cardinality: the product of the axis lengths.
func (g Grid) Size() int {
	return len(g.OTMPercents) * len(g.WingWidths) * len(g.IntradayChangeMaxs) * len(g.Credits)
}

// Each enumerates the Cartesian product in a fixed order, calling fn with
// the ordinal grid index and the parameter set. Enumeration stops early
// when fn returns false. The sequence is regenerated on every call, so the
// grid can be walked once per walk-forward window without shared state.
func (g Grid) Each(fn func(index int, ps models.ParameterSet) bool) {
	i := 0
	for _, otm := range g.OTMPercents {
		for _, wing := range g.WingWidths {
			for _, chg := range g.IntradayChangeMaxs {
				for _, credit := range g.Credits {
					ps := models.ParameterSet{
						OTMPercent:        otm,
						WingWidth:         wing,
						IntradayChangeMax: chg,
						Credit:            credit,
					}
					if !fn(i, ps) {
						return
					}
					i++
				}
			}
		}
	}
}

// Sets materializes the full enumeration. Mostly a test and reporting
// convenience; the optimizer streams via Each.
func (g Grid) Sets() []models.ParameterSet {
	out := make([]models.ParameterSet, 0, g.Size())
	g.Each(func(_ int, ps models.ParameterSet) bool {
		out = append(out, ps)
		return true
	})
	return out
}

// DefaultGrid is the documented default search space: short strikes 0.5-2%
// out of the money, wings 25-100 points, trending filter 0.5-2%, credits
// EUR 1.50-4.00 per condor.
func DefaultGrid() Grid {
	return Grid{
		OTMPercents:        []float64{0.5, 1.0, 1.5, 2.0},
		WingWidths:         []float64{25, 50, 75, 100},
		IntradayChangeMaxs: []float64{0.5, 1.0, 1.5, 2.0},
		Credits:            []float64{1.5, 2.0, 2.5, 3.0, 3.5, 4.0},
	}
}
