// Package util provides common utility functions for price calculations.
package util

import "math"

// RoundToTick rounds x to the nearest tick increment, ties away from zero
// (math.Round semantics). Strike levels are derived with tick=1.0, so a
// reference price of 4949.5 produces a 4950 strike; this choice is load
// bearing for exact backtest P&L and is pinned by tests.
func RoundToTick(x, tick float64) float64 {
	if tick == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	tick = math.Abs(tick)
	return math.Round(x/tick) * tick
}
