package optimize

import (
	"time"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// Window is one walk-forward split: a training range followed immediately
// by an out-of-sample test range. Ranges are half-open [start, end).
type Window struct {
	Index      int
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// Windows generates the rolling walk-forward splits for [start, end].
// Window i trains on [start + i*test, start + i*test + train) and tests on
// the following test range. Windows advance by the test length, so test
// ranges never overlap and collectively move forward in time. Generation
// stops when the next test range would pass end; if not even one window
// fits, an InsufficientDataError names the minimum span.
func Windows(start, end time.Time, trainMonths, testMonths int) ([]Window, error) {
	if trainMonths <= 0 {
		return nil, &models.InvalidParameterError{Field: "train_months", Value: float64(trainMonths), Reason: "must be > 0"}
	}
	if testMonths <= 0 {
		return nil, &models.InvalidParameterError{Field: "test_months", Value: float64(testMonths), Reason: "must be > 0"}
	}

	var windows []Window
	for i := 0; ; i++ {
		trainStart := start.AddDate(0, i*testMonths, 0)
		trainEnd := trainStart.AddDate(0, trainMonths, 0)
		testEnd := trainEnd.AddDate(0, testMonths, 0)
		if testEnd.After(end) {
			break
		}
		windows = append(windows, Window{
			Index:      i,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
	}

	if len(windows) == 0 {
		return nil, &models.InsufficientDataError{
			Start:          start,
			End:            end,
			RequiredMonths: trainMonths + testMonths,
		}
	}
	return windows, nil
}
