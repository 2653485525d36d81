package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/vpchart/pkg/models"
)

func hourly(from time.Time, n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time: from.Add(time.Duration(i) * time.Hour),
			Open: 10, High: 11, Low: 9, Close: 10, Volume: 1,
		}
	}
	return candles
}

func findKind(ranges []AutoRange, kind AutoKind) (IndexRange, bool) {
	for _, r := range ranges {
		if r.Kind == kind {
			return r.Range, true
		}
	}
	return IndexRange{}, false
}

func TestAutoRanges_DayAndWeek(t *testing.T) {
	// 10 суток часовых свечей, начиная с полуночи UTC
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := hourly(start, 10*24)

	ranges := AutoRanges(candles, AutoToggles{Day: true, Week: true}, IndexRange{})
	require.Len(t, ranges, 2)

	day, ok := findKind(ranges, AutoDay)
	require.True(t, ok)
	assert.Equal(t, IndexRange{Start: 9 * 24, End: 10*24 - 1}, day)

	week, ok := findKind(ranges, AutoWeek)
	require.True(t, ok)
	assert.Equal(t, IndexRange{Start: 3 * 24, End: 10*24 - 1}, week)
}

func TestAutoRanges_DaySkippedForSingleCandle(t *testing.T) {
	// последняя свеча единственная в своих сутках
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := hourly(start, 25)

	ranges := AutoRanges(candles, AutoToggles{Day: true}, IndexRange{})
	assert.Empty(t, ranges)
}

func TestAutoRanges_Month(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	candles := hourly(start, 24*4) // 28, 29 февраля, 1 и 2 марта

	ranges := AutoRanges(candles, AutoToggles{Month: true}, IndexRange{})
	month, ok := findKind(ranges, AutoMonth)
	require.True(t, ok)
	assert.Equal(t, IndexRange{Start: 48, End: 95}, month)
}

func TestAutoRanges_ZeroTimesOnlyVisible(t *testing.T) {
	candles := make([]models.Candle, 50)
	ranges := AutoRanges(candles, AutoToggles{Day: true, Week: true, Session: true, Month: true, Visible: true},
		IndexRange{Start: 40, End: 10})

	require.Len(t, ranges, 1)
	assert.Equal(t, AutoVisible, ranges[0].Kind)
	assert.Equal(t, IndexRange{Start: 10, End: 40}, ranges[0].Range)
}

func TestAutoRanges_Empty(t *testing.T) {
	assert.Nil(t, AutoRanges(nil, AutoToggles{Day: true, Visible: true}, IndexRange{End: 5}))
}

func TestSessionStart(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	candles := hourly(start, 8)
	// разрыв в 3 часа перед свечой 5
	for i := 5; i < len(candles); i++ {
		candles[i].Time = candles[i].Time.Add(2 * time.Hour)
	}
	assert.Equal(t, 5, SessionStart(candles))

	ranges := AutoRanges(candles, AutoToggles{Session: true}, IndexRange{})
	session, ok := findKind(ranges, AutoSession)
	require.True(t, ok)
	assert.Equal(t, IndexRange{Start: 5, End: 7}, session)

	// без разрывов сессия покрывает всю серию
	assert.Equal(t, 0, SessionStart(hourly(start, 6)))
}

func TestIndexRange_Normalize(t *testing.T) {
	assert.Equal(t, IndexRange{Start: 0, End: 9}, IndexRange{Start: 15, End: -3}.Normalize(10))
	assert.Equal(t, 4, IndexRange{Start: 2, End: 6}.Span())
}
