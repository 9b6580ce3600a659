package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

func TestSortino(t *testing.T) {
	t.Run("mixed returns", func(t *testing.T) {
		returns := []float64{10, -5, 20, -10, 5}
		// mean = 4, downside dev = sqrt((25+100)/5) = 5
		assert.InDelta(t, 0.8, Sortino(returns), 1e-9)
	})

	t.Run("empty series scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Sortino(nil))
	})

	t.Run("no losers uses documented floor", func(t *testing.T) {
		got := Sortino([]float64{10, 20, 30})
		// mean 20 over the 1e-9 floor: huge but finite, never a division by
		// zero.
		assert.InDelta(t, 20/downsideDeviationFloor, got, 1)
		assert.False(t, math.IsInf(got, 1))
		assert.False(t, math.IsNaN(got))
	})

	t.Run("all losers is negative", func(t *testing.T) {
		assert.Less(t, Sortino([]float64{-10, -20}), 0.0)
	})
}

func TestRobustness(t *testing.T) {
	t.Run("defined when train sortino positive", func(t *testing.T) {
		r, ok := robustness(Metrics{Sortino: 2.0}, Metrics{Sortino: 1.0})
		require.True(t, ok)
		assert.InDelta(t, 0.5, r, 1e-9)
	})

	t.Run("undefined when train sortino zero", func(t *testing.T) {
		// A zero in-sample Sortino is a different condition than "did not
		// compute": the ratio is flagged undefined, never silently 0.
		_, ok := robustness(Metrics{Sortino: 0}, Metrics{Sortino: 1.0})
		assert.False(t, ok)
	})

	t.Run("undefined when train sortino negative", func(t *testing.T) {
		_, ok := robustness(Metrics{Sortino: -0.5}, Metrics{Sortino: 1.0})
		assert.False(t, ok)
	})
}

func TestRankAggregatesAcrossWindows(t *testing.T) {
	psA := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.5}
	psB := models.ParameterSet{OTMPercent: 2, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.5}

	results := []WindowResult{
		{Params: psA, GridIndex: 0, Train: Metrics{Sortino: 2}, Test: Metrics{Sortino: 1.0}, Robustness: 0.5, RobustnessDefined: true},
		{Params: psA, GridIndex: 0, Train: Metrics{Sortino: 2}, Test: Metrics{Sortino: 3.0}, Robustness: 1.5, RobustnessDefined: true},
		{Params: psB, GridIndex: 1, Train: Metrics{Sortino: 4}, Test: Metrics{Sortino: 1.0}, Robustness: 0.25, RobustnessDefined: true},
		{Params: psB, GridIndex: 1, Train: Metrics{Sortino: 4}, Test: Metrics{Sortino: 1.0}, Robustness: 0.25, RobustnessDefined: true},
	}

	rows := rank(results)
	require.Len(t, rows, 2)

	// psA: mean test sortino 2.0 beats psB's 1.0. Windows are unweighted.
	assert.Equal(t, psA, rows[0].Params)
	assert.InDelta(t, 2.0, rows[0].MeanTestSortino, 1e-9)
	assert.InDelta(t, 1.0, rows[0].MeanRobustness, 1e-9)
	assert.Equal(t, 2, rows[0].Windows)

	assert.Equal(t, psB, rows[1].Params)
	assert.InDelta(t, 0.25, rows[1].MeanRobustness, 1e-9)
}

func TestRankTieBreaking(t *testing.T) {
	psA := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.0}
	psB := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.5}
	psC := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 3.0}

	results := []WindowResult{
		// Same test sortino; psB more robust than psA.
		{Params: psA, GridIndex: 0, Test: Metrics{Sortino: 1.0}, Robustness: 0.4, RobustnessDefined: true},
		{Params: psB, GridIndex: 1, Test: Metrics{Sortino: 1.0}, Robustness: 0.9, RobustnessDefined: true},
		// Same everything as psA except higher grid index: loses the last
		// tie-break.
		{Params: psC, GridIndex: 2, Test: Metrics{Sortino: 1.0}, Robustness: 0.4, RobustnessDefined: true},
	}

	rows := rank(results)
	require.Len(t, rows, 3)
	assert.Equal(t, psB, rows[0].Params)
	assert.Equal(t, psA, rows[1].Params)
	assert.Equal(t, psC, rows[2].Params)
}

func TestRankUndefinedRobustnessSortsLast(t *testing.T) {
	psA := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.0}
	psB := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.5}

	results := []WindowResult{
		{Params: psA, GridIndex: 0, Test: Metrics{Sortino: 1.0}},
		{Params: psB, GridIndex: 1, Test: Metrics{Sortino: 1.0}, Robustness: 0.1, RobustnessDefined: true},
	}

	rows := rank(results)
	require.Len(t, rows, 2)
	assert.Equal(t, psB, rows[0].Params)
	assert.False(t, rows[1].RobustnessDefined)
}

func TestRankExcludesFailedUnits(t *testing.T) {
	psA := models.ParameterSet{OTMPercent: 1, WingWidth: 50, IntradayChangeMax: 1, Credit: 2.0}

	results := []WindowResult{
		{Params: psA, GridIndex: 0, Test: Metrics{Sortino: 1.0}, Robustness: 1, RobustnessDefined: true},
		{Params: psA, GridIndex: 0, FailureReason: "train: market data error"},
	}

	rows := rank(results)
	require.Len(t, rows, 1)
	// Only the successful window contributes.
	assert.Equal(t, 1, rows[0].Windows)
}

func TestLedgerMetricsEmptyLedger(t *testing.T) {
	m := Metrics{}
	assert.Equal(t, 0, m.Trades)
	assert.Equal(t, 0.0, m.Sortino)
}
