package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoadBars(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bars := []models.PriceBar{
		{Date: day(2024, 3, 4), Open: 4900, High: 4930, Low: 4890, Close: 4910, HasIntraday: true},
		{Date: day(2024, 3, 5), Open: 4910, Close: 4905},
		{Date: day(2024, 3, 6), Open: 4905, Close: 4948},
	}
	require.NoError(t, store.SaveBars(ctx, "SX5E", bars))

	got, err := store.Bars(ctx, "SX5E", day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, bars[0], got[0])
	assert.False(t, got[1].HasIntraday)

	n, err := store.BarCount(ctx, "SX5E")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Range query excludes days outside the window.
	got, err = store.Bars(ctx, "SX5E", day(2024, 3, 5), day(2024, 3, 5))
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Other symbols are invisible.
	got, err = store.Bars(ctx, "DAX", day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveBarsUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBars(ctx, "SX5E", []models.PriceBar{
		{Date: day(2024, 3, 4), Open: 4900, Close: 4910},
	}))
	require.NoError(t, store.SaveBars(ctx, "SX5E", []models.PriceBar{
		{Date: day(2024, 3, 4), Open: 4901, Close: 4911},
	}))

	got, err := store.Bars(ctx, "SX5E", day(2024, 3, 4), day(2024, 3, 4))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4901.0, got[0].Open)
}

func TestSaveBarsEmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.SaveBars(context.Background(), "SX5E", nil))
}

func TestBarSourceAdapter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBars(ctx, "SX5E", []models.PriceBar{
		{Date: day(2024, 3, 4), Open: 4900, Close: 4910},
	}))

	src := &BarSource{Store: store, Symbol: "SX5E"}
	bars, err := src.Bars(ctx, day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestSaveAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, RunSummary{
		ID: "run-1", Kind: "backtest", Symbol: "SX5E",
		Start: day(2024, 1, 1), End: day(2024, 6, 30),
		Summary:   "always pnl 120.50, filtered pnl 180.00",
		CreatedAt: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveRun(ctx, RunSummary{
		ID: "run-2", Kind: "optimize", Symbol: "SX5E",
		Start: day(2024, 1, 1), End: day(2024, 6, 30),
		Summary:   "top otm=1.00% wing=50",
		CreatedAt: time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC),
	}))

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, day(2024, 1, 1), runs[0].Start)
}
