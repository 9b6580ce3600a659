// Package marketdata supplies daily OHLC bars to the engine. Bars come from
// a Source (CSV file, SQLite cache, or HTTP download) and are assembled
// into an immutable Series before any backtest or optimization starts, so
// the hot loop never touches I/O.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// Series is an ordered, duplicate-free sequence of daily price bars.
// It is read-only after construction and safe for concurrent use.
type Series struct {
	bars   []models.PriceBar
	byDate map[string]int
}

// NewSeries builds a Series from bars in any order. Dates are normalized to
// midnight UTC; duplicate dates are rejected rather than silently merged.
func NewSeries(bars []models.PriceBar) (*Series, error) {
	sorted := make([]models.PriceBar, len(bars))
	copy(sorted, bars)
	for i := range sorted {
		sorted[i].Date = normalizeDate(sorted[i].Date)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	byDate := make(map[string]int, len(sorted))
	for i, b := range sorted {
		key := b.DateKey()
		if _, dup := byDate[key]; dup {
			return nil, fmt.Errorf("duplicate price bar for %s", key)
		}
		byDate[key] = i
	}

	return &Series{bars: sorted, byDate: byDate}, nil
}

// Len returns the number of bars in the series.
func (s *Series) Len() int {
	return len(s.bars)
}

// Bar returns the bar for the given date, if one exists. Holidays and
// weekends are simply absent.
func (s *Series) Bar(date time.Time) (models.PriceBar, bool) {
	i, ok := s.byDate[normalizeDate(date).Format("2006-01-02")]
	if !ok {
		return models.PriceBar{}, false
	}
	return s.bars[i], true
}

// Range returns the bars with start <= date <= end, in chronological order.
// The returned slice must not be mutated.
func (s *Series) Range(start, end time.Time) []models.PriceBar {
	start, end = normalizeDate(start), normalizeDate(end)
	lo := sort.Search(len(s.bars), func(i int) bool { return !s.bars[i].Date.Before(start) })
	hi := sort.Search(len(s.bars), func(i int) bool { return s.bars[i].Date.After(end) })
	return s.bars[lo:hi]
}

// Bounds returns the first and last bar dates. ok is false for an empty
// series.
func (s *Series) Bounds() (first, last time.Time, ok bool) {
	if len(s.bars) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.bars[0].Date, s.bars[len(s.bars)-1].Date, true
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
