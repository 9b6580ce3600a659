package marketdata

import (
	"context"
	"time"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// Source supplies daily price bars for a date range. Implementations return
// only the days that actually traded; holidays are missing entries, never
// zero-filled bars.
type Source interface {
	Bars(ctx context.Context, start, end time.Time) ([]models.PriceBar, error)
}

// Load fetches bars from a source and freezes them into a Series.
func Load(ctx context.Context, src Source, start, end time.Time) (*Series, error) {
	bars, err := src.Bars(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return NewSeries(bars)
}
