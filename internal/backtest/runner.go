package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/marketdata"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/strategy"
)

// Runner replays one parameter set over a date range. Each trading day
// passes through the same sequence: skip if the bar is missing, evaluate
// the open-to-close change, decide the trending-day filter, then settle.
//
// Strikes are computed from the entry day's open and the condor settles at
// the entry day's close. True intraday settlement data is unavailable for
// most of the historical series, so the open-to-close sequence is the proxy
// for the 0DTE lifecycle; it is applied identically to both variants so the
// filter's participation is the only difference between the two ledgers.
type Runner struct {
	series     *marketdata.Series
	multiplier float64
	logger     *logrus.Logger
}

// Result bundles both ledgers of one run with its identity and the days the
// runner had to drop because of bad data.
type Result struct {
	RunID      string
	Start      time.Time
	End        time.Time
	Params     models.ParameterSet
	Always     *Ledger
	Filtered   *Ledger
	DataErrors int
}

// NewRunner creates a runner over an immutable price series. multiplier is
// the contract multiplier (EUR per index point).
func NewRunner(series *marketdata.Series, multiplier float64, logger *logrus.Logger) (*Runner, error) {
	if series == nil {
		return nil, fmt.Errorf("price series is required")
	}
	if multiplier <= 0 {
		return nil, &models.InvalidParameterError{Field: "multiplier", Value: multiplier, Reason: "must be > 0"}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{series: series, multiplier: multiplier, logger: logger}, nil
}

// Run simulates [start, end] under params and returns both ledgers. The
// result is deterministic: the same series and parameters always produce
// identical ledgers. Days with unusable prices are dropped from both
// ledgers and counted in DataErrors; an invalid parameter set aborts the
// whole run.
func (r *Runner) Run(ctx context.Context, start, end time.Time, params models.ParameterSet) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	result := &Result{
		RunID:    uuid.New().String(),
		Start:    start,
		End:      end,
		Params:   params,
		Always:   newLedger(VariantAlways),
		Filtered: newLedger(VariantFiltered),
	}

	// Holidays are simply absent from the series, so iterating its bars is
	// the SKIP state: no trade recorded, no P&L impact.
	for _, bar := range r.series.Range(start, end) {
		record, err := r.simulateDay(bar, params)
		if err != nil {
			var dataErr *models.MarketDataError
			if errors.As(err, &dataErr) {
				result.DataErrors++
				r.logger.WithFields(logrus.Fields{
					"date":   bar.DateKey(),
					"reason": dataErr.Reason,
				}).Warn("dropping day with bad price data")
				continue
			}
			return nil, err
		}

		result.Always.add(record)
		if !record.WasFiltered {
			filteredRecord := record
			filteredRecord.WasFiltered = false
			result.Filtered.add(filteredRecord)
		}

		r.logger.WithFields(logrus.Fields{
			"date":     bar.DateKey(),
			"strikes":  record.Strikes.String(),
			"pnl":      record.PnL,
			"filtered": record.WasFiltered,
		}).Debug("settled condor")
	}

	r.logger.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"params":      params.String(),
		"days":        len(result.Always.Trades),
		"always_pnl":  result.Always.TotalPnL,
		"filter_pnl":  result.Filtered.TotalPnL,
		"data_errors": result.DataErrors,
	}).Info("backtest complete")

	return result, nil
}

// simulateDay runs EVALUATE, FILTER_DECISION, and SETTLE for one bar. The
// returned record carries WasFiltered so the caller can route it to the
// right ledgers.
func (r *Runner) simulateDay(bar models.PriceBar, params models.ParameterSet) (models.TradeRecord, error) {
	if bar.Open <= 0 {
		return models.TradeRecord{}, &models.MarketDataError{Date: bar.Date, Reason: "non-positive open price"}
	}
	if bar.Close <= 0 {
		return models.TradeRecord{}, &models.MarketDataError{Date: bar.Date, Reason: "non-positive settlement price"}
	}

	strikes, err := strategy.ComputeStrikes(bar.Open, params.OTMPercent, params.WingWidth)
	if err != nil {
		return models.TradeRecord{}, err
	}

	outcome, err := strategy.Settle(strikes, params.Credit, bar.Close, r.multiplier)
	if err != nil {
		return models.TradeRecord{}, err
	}

	blocked := math.Abs(bar.ChangePercent()) > params.IntradayChangeMax

	return models.TradeRecord{
		EntryDate:       bar.Date,
		Strikes:         strikes,
		Credit:          params.Credit,
		SettlementPrice: bar.Close,
		PnL:             outcome.PnL,
		MaxLoss:         outcome.MaxLoss,
		WasFiltered:     blocked,
	}, nil
}
