package optimize

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

func TestWindowsLayout(t *testing.T) {
	// Two years, train 6 months, test 2 months: windows advance by the test
	// length. Last test end must not pass the overall end.
	windows, err := Windows(day(2022, 1, 1), day(2024, 1, 1), 6, 2)
	require.NoError(t, err)
	require.Len(t, windows, 9)

	first := windows[0]
	assert.Equal(t, day(2022, 1, 1), first.TrainStart)
	assert.Equal(t, day(2022, 7, 1), first.TrainEnd)
	assert.Equal(t, day(2022, 7, 1), first.TestStart)
	assert.Equal(t, day(2022, 9, 1), first.TestEnd)

	last := windows[len(windows)-1]
	assert.False(t, last.TestEnd.After(day(2024, 1, 1)))

	for i, w := range windows {
		assert.Equal(t, i, w.Index)
		// Test range immediately follows training.
		assert.Equal(t, w.TrainEnd, w.TestStart)
		if i > 0 {
			prev := windows[i-1]
			// Test ranges never overlap and advance monotonically.
			assert.False(t, w.TestStart.Before(prev.TestEnd))
			assert.True(t, w.TrainStart.After(prev.TrainStart))
		}
	}
}

func TestWindowsInsufficientData(t *testing.T) {
	// 6 months training + 2 months testing needs 8 months; 5 months is too
	// short for even one window.
	_, err := Windows(day(2024, 1, 1), day(2024, 6, 1), 6, 2)

	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 8, insufficient.RequiredMonths)
	assert.Contains(t, err.Error(), "8 months")
}

func TestWindowsExactFit(t *testing.T) {
	windows, err := Windows(day(2024, 1, 1), day(2024, 9, 1), 6, 2)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, day(2024, 9, 1), windows[0].TestEnd)
}

func TestWindowsRejectsBadLengths(t *testing.T) {
	_, err := Windows(day(2024, 1, 1), day(2025, 1, 1), 0, 2)
	var invalid *models.InvalidParameterError
	require.ErrorAs(t, err, &invalid)

	_, err = Windows(day(2024, 1, 1), day(2025, 1, 1), 6, -1)
	require.ErrorAs(t, err, &invalid)
}
