package optimize

import (
	"math"
	"sort"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/backtest"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// downsideDeviationFloor replaces a zero downside deviation when a ledger
// has no losing trades. A true zero would make the Sortino ratio divide by
// zero; the floor keeps all-winner ledgers rankable (they score very high,
// finite) and is applied consistently everywhere the ratio is computed.
const downsideDeviationFloor = 1e-9

// Sortino returns mean(returns) / downside deviation, the risk-adjusted
// score used for ranking. The minimum acceptable return is zero: only
// negative returns count as downside. An empty return series scores zero.
func Sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	return mean / downsideDeviation(returns)
}

// downsideDeviation is the root mean square of the below-zero returns,
// measured over the full series length, floored to keep division safe.
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
		}
	}
	dev := math.Sqrt(sumSq / float64(len(returns)))
	if dev < downsideDeviationFloor {
		return downsideDeviationFloor
	}
	return dev
}

// Metrics summarizes one ledger for ranking and reporting.
type Metrics struct {
	Trades   int
	Wins     int
	Losses   int
	TotalPnL float64
	Sortino  float64
}

// LedgerMetrics computes Metrics from a settled ledger.
func LedgerMetrics(l *backtest.Ledger) Metrics {
	return Metrics{
		Trades:   len(l.Trades),
		Wins:     l.Wins,
		Losses:   l.Losses,
		TotalPnL: l.TotalPnL,
		Sortino:  Sortino(l.Returns()),
	}
}

// WindowResult is the outcome of running one parameter set over one
// walk-forward window. Failed units keep their failure reason instead of
// metrics; they are excluded from ranking but surfaced in the report.
type WindowResult struct {
	Window    Window
	Params    models.ParameterSet
	GridIndex int
	Train     Metrics
	Test      Metrics
	// Robustness is test Sortino over train Sortino. It is undefined (not
	// zero) when the in-sample Sortino is not strictly positive: a zero
	// in-sample score is a different condition from "did not compute".
	Robustness        float64
	RobustnessDefined bool
	FailureReason     string
}

// Failed reports whether the unit errored instead of producing metrics.
func (w WindowResult) Failed() bool {
	return w.FailureReason != ""
}

func robustness(train, test Metrics) (float64, bool) {
	if train.Sortino <= 0 {
		return 0, false
	}
	return test.Sortino / train.Sortino, true
}

// Aggregate is the cross-window summary of one parameter set: the report
// row. Sortino ratios are unweighted means over the windows the set
// completed; robustness averages only the windows where it was defined.
type Aggregate struct {
	Params            models.ParameterSet
	GridIndex         int
	Windows           int
	MeanTrainSortino  float64
	MeanTestSortino   float64
	MeanRobustness    float64
	RobustnessDefined bool
	Recommended       bool
}

// rank aggregates window results per parameter set and orders them by mean
// out-of-sample Sortino descending, ties broken by higher mean robustness,
// then by lower grid index for determinism. Failed units are skipped.
func rank(results []WindowResult) []Aggregate {
	type acc struct {
		gridIndex  int
		windows    int
		trainSum   float64
		testSum    float64
		robustSum  float64
		robustSeen int
	}
	byParams := make(map[models.ParameterSet]*acc)

	for _, res := range results {
		if res.Failed() {
			continue
		}
		a, ok := byParams[res.Params]
		if !ok {
			a = &acc{gridIndex: res.GridIndex}
			byParams[res.Params] = a
		}
		a.windows++
		a.trainSum += res.Train.Sortino
		a.testSum += res.Test.Sortino
		if res.RobustnessDefined {
			a.robustSum += res.Robustness
			a.robustSeen++
		}
	}

	rows := make([]Aggregate, 0, len(byParams))
	for params, a := range byParams {
		row := Aggregate{
			Params:           params,
			GridIndex:        a.gridIndex,
			Windows:          a.windows,
			MeanTrainSortino: a.trainSum / float64(a.windows),
			MeanTestSortino:  a.testSum / float64(a.windows),
		}
		if a.robustSeen > 0 {
			row.MeanRobustness = a.robustSum / float64(a.robustSeen)
			row.RobustnessDefined = true
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanTestSortino != rows[j].MeanTestSortino {
			return rows[i].MeanTestSortino > rows[j].MeanTestSortino
		}
		ri, rj := rankRobustness(rows[i]), rankRobustness(rows[j])
		if ri != rj {
			return ri > rj
		}
		return rows[i].GridIndex < rows[j].GridIndex
	})
	return rows
}

// rankRobustness orders undefined robustness below any defined value.
func rankRobustness(a Aggregate) float64 {
	if !a.RobustnessDefined {
		return math.Inf(-1)
	}
	return a.MeanRobustness
}
