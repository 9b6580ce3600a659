package optimize

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/backtest"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// DefaultRobustnessThreshold flags the top candidate as likely overfit when
// its out-of-sample performance is less than half the in-sample one.
const DefaultRobustnessThreshold = 0.5

// Optimizer runs every (window, parameter set) unit over a shared immutable
// price series. Units are independent and side-effect-free, so they fan out
// over a bounded worker pool; results are collected and reduced in a single
// place, keeping the aggregation order-independent and lock-free.
type Optimizer struct {
	series              *marketdata.Series
	grid                Grid
	trainMonths         int
	testMonths          int
	multiplier          float64
	workers             int
	robustnessThreshold float64
	logger              *logrus.Logger
}

// Settings configures an optimization run. Zero Workers defaults to
// NumCPU; zero RobustnessThreshold defaults to 0.5.
type Settings struct {
	Grid                Grid
	TrainMonths         int
	TestMonths          int
	Multiplier          float64
	Workers             int
	RobustnessThreshold float64
}

// Report is the final ranked product of an optimization run. Rows are
// ordered best-first; Failures enumerates the units that errored and were
// excluded from ranking.
type Report struct {
	RunID               string
	Start               time.Time
	End                 time.Time
	TrainMonths         int
	TestMonths          int
	WindowCount         int
	GridSize            int
	Rows                []Aggregate
	Top                 *Aggregate
	OverfitWarning      bool
	RobustnessThreshold float64
	Failures            []UnitFailure
	Elapsed             time.Duration
}

// UnitFailure records one (window, parameter set) unit that failed.
type UnitFailure struct {
	WindowIndex int
	Params      models.ParameterSet
	Reason      string
}

// New creates an optimizer over an immutable series.
func New(series *marketdata.Series, settings Settings, logger *logrus.Logger) (*Optimizer, error) {
	if err := settings.Grid.Validate(); err != nil {
		return nil, err
	}
	if settings.Multiplier <= 0 {
		return nil, &models.InvalidParameterError{Field: "multiplier", Value: settings.Multiplier, Reason: "must be > 0"}
	}
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}
	if settings.RobustnessThreshold <= 0 {
		settings.RobustnessThreshold = DefaultRobustnessThreshold
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Optimizer{
		series:              series,
		grid:                settings.Grid,
		trainMonths:         settings.TrainMonths,
		testMonths:          settings.TestMonths,
		multiplier:          settings.Multiplier,
		workers:             settings.Workers,
		robustnessThreshold: settings.RobustnessThreshold,
		logger:              logger,
	}, nil
}

// unit is one independent (window, parameter set) work item.
type unit struct {
	window    Window
	gridIndex int
	params    models.ParameterSet
}

// Run executes the full walk-forward grid search over [start, end].
// Cancellation is cooperative: the context is checked between units, so an
// interrupted run stops promptly without corrupting the report. Per-unit
// failures are recorded, excluded from ranking, and never abort siblings;
// only an unfittable date range or cancellation fails the run as a whole.
func (o *Optimizer) Run(ctx context.Context, start, end time.Time) (*Report, error) {
	began := time.Now()

	windows, err := Windows(start, end, o.trainMonths, o.testMonths)
	if err != nil {
		return nil, err
	}

	gridSize := o.grid.Size()
	if gridSize > warnCombinations {
		o.logger.WithFields(logrus.Fields{
			"combinations": gridSize,
			"threshold":    warnCombinations,
		}).Warn("parameter grid is very large, expect a long optimization")
	}

	units := make([]unit, 0, gridSize*len(windows))
	for _, w := range windows {
		o.grid.Each(func(i int, ps models.ParameterSet) bool {
			units = append(units, unit{window: w, gridIndex: i, params: ps})
			return true
		})
	}

	o.logger.WithFields(logrus.Fields{
		"windows": len(windows),
		"grid":    gridSize,
		"units":   len(units),
		"workers": o.workers,
	}).Info("starting walk-forward optimization")

	results := make([]WindowResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, u := range units {
		g.Go(func() error {
			// Cooperative cancellation between units, never mid-unit.
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.runUnit(gctx, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o.reduce(start, end, windows, gridSize, results, began), nil
}

// runUnit backtests one parameter set on a window's train and test ranges.
// Unit errors become a failed WindowResult, not a run error.
func (o *Optimizer) runUnit(ctx context.Context, u unit) WindowResult {
	result := WindowResult{Window: u.window, Params: u.params, GridIndex: u.gridIndex}

	runner, err := backtest.NewRunner(o.series, o.multiplier, o.logger)
	if err != nil {
		result.FailureReason = err.Error()
		return result
	}

	train, err := runner.Run(ctx, u.window.TrainStart, u.window.TrainEnd.AddDate(0, 0, -1), u.params)
	if err != nil {
		result.FailureReason = "train: " + err.Error()
		return result
	}
	test, err := runner.Run(ctx, u.window.TestStart, u.window.TestEnd.AddDate(0, 0, -1), u.params)
	if err != nil {
		result.FailureReason = "test: " + err.Error()
		return result
	}

	result.Train = LedgerMetrics(train.Filtered)
	result.Test = LedgerMetrics(test.Filtered)
	result.Robustness, result.RobustnessDefined = robustness(result.Train, result.Test)
	return result
}

// reduce is the single synchronization point: a plain fold over the
// collected results, independent of worker completion order.
func (o *Optimizer) reduce(start, end time.Time, windows []Window, gridSize int, results []WindowResult, began time.Time) *Report {
	report := &Report{
		RunID:               uuid.New().String(),
		Start:               start,
		End:                 end,
		TrainMonths:         o.trainMonths,
		TestMonths:          o.testMonths,
		WindowCount:         len(windows),
		GridSize:            gridSize,
		RobustnessThreshold: o.robustnessThreshold,
	}

	for _, res := range results {
		if res.Failed() {
			report.Failures = append(report.Failures, UnitFailure{
				WindowIndex: res.Window.Index,
				Params:      res.Params,
				Reason:      res.FailureReason,
			})
		}
	}

	report.Rows = rank(results)
	if len(report.Rows) > 0 {
		top := report.Rows[0]
		top.Recommended = true
		report.Rows[0] = top
		report.Top = &top
		// An undefined robustness on the winner is treated as a warning
		// too: the run produced no evidence the set generalizes.
		report.OverfitWarning = !top.RobustnessDefined || top.MeanRobustness < o.robustnessThreshold
	}
	report.Elapsed = time.Since(began)

	o.logger.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"ranked":   len(report.Rows),
		"failures": len(report.Failures),
		"overfit":  report.OverfitWarning,
		"elapsed":  report.Elapsed.String(),
	}).Info("optimization complete")

	return report
}
