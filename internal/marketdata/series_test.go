package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSeriesSortsAndIndexes(t *testing.T) {
	bars := []models.PriceBar{
		{Date: day(2024, 3, 6), Open: 4920, Close: 4930},
		{Date: day(2024, 3, 4), Open: 4900, Close: 4910},
		{Date: day(2024, 3, 5), Open: 4910, Close: 4905},
	}

	s, err := NewSeries(bars)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	first, last, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, day(2024, 3, 4), first)
	assert.Equal(t, day(2024, 3, 6), last)

	bar, ok := s.Bar(day(2024, 3, 5))
	require.True(t, ok)
	assert.Equal(t, 4910.0, bar.Open)

	_, ok = s.Bar(day(2024, 3, 7))
	assert.False(t, ok)
}

func TestNewSeriesRejectsDuplicateDates(t *testing.T) {
	bars := []models.PriceBar{
		{Date: day(2024, 3, 4), Open: 4900, Close: 4910},
		{Date: day(2024, 3, 4), Open: 4901, Close: 4911},
	}
	_, err := NewSeries(bars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSeriesRange(t *testing.T) {
	var bars []models.PriceBar
	for d := 1; d <= 10; d++ {
		bars = append(bars, models.PriceBar{Date: day(2024, 3, d), Open: 4900, Close: 4910})
	}
	s, err := NewSeries(bars)
	require.NoError(t, err)

	got := s.Range(day(2024, 3, 3), day(2024, 3, 7))
	require.Len(t, got, 5)
	assert.Equal(t, day(2024, 3, 3), got[0].Date)
	assert.Equal(t, day(2024, 3, 7), got[4].Date)

	assert.Empty(t, s.Range(day(2024, 4, 1), day(2024, 4, 30)))
	assert.Len(t, s.Range(day(2024, 2, 1), day(2024, 3, 31)), 10)
}

func TestSeriesNormalizesTimeOfDay(t *testing.T) {
	bars := []models.PriceBar{
		{Date: time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC), Open: 4900, Close: 4910},
	}
	s, err := NewSeries(bars)
	require.NoError(t, err)

	_, ok := s.Bar(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	assert.True(t, ok)
}
