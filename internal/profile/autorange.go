package profile

import (
	"time"

	"github.com/skalibog/vpchart/pkg/models"
)

// AutoKind вид автоматического диапазона
type AutoKind string

const (
	AutoDay     AutoKind = "day"
	AutoWeek    AutoKind = "week"
	AutoSession AutoKind = "session"
	AutoMonth   AutoKind = "month"
	AutoVisible AutoKind = "visible"
)

const (
	// Day длина суток
	Day = 24 * time.Hour
	// SessionGap пауза между свечами, после которой начинается новая сессия
	SessionGap = 2 * time.Hour
)

// AutoToggles какие автоматические профили строить
type AutoToggles struct {
	Day     bool `yaml:"day"`
	Week    bool `yaml:"week"`
	Session bool `yaml:"session"`
	Month   bool `yaml:"month"`
	Visible bool `yaml:"visible_range"`
}

// IndexRange диапазон глобальных индексов, оба конца включительно
type IndexRange struct {
	Start int
	End   int
}

// Normalize упорядочивает концы и прижимает их к [0, total-1]
func (r IndexRange) Normalize(total int) IndexRange {
	lo, hi := min(r.Start, r.End), max(r.Start, r.End)
	return IndexRange{Start: max(lo, 0), End: min(hi, total-1)}
}

// Span число баров между концами
func (r IndexRange) Span() int {
	return r.End - r.Start
}

// AutoRange автоматический диапазон, привязанный к последней свече
type AutoRange struct {
	Kind  AutoKind
	Range IndexRange
}

// AutoRanges вычисляет включённые автоматические диапазоны по всей серии.
// visible: текущее видимое окно (для профиля видимого диапазона).
// Диапазоны короче двух свечей пропускаются.
func AutoRanges(candles []models.Candle, toggles AutoToggles, visible IndexRange) []AutoRange {
	if len(candles) == 0 {
		return nil
	}

	var ranges []AutoRange
	add := func(kind AutoKind, r IndexRange, ok bool) {
		if !ok {
			return
		}
		r = r.Normalize(len(candles))
		if r.Start >= r.End {
			return
		}
		ranges = append(ranges, AutoRange{Kind: kind, Range: r})
	}

	last := candles[len(candles)-1].Time
	if !last.IsZero() {
		dayStart := time.UnixMilli(last.UnixMilli() / Day.Milliseconds() * Day.Milliseconds()).UTC()
		dayEnd := dayStart.Add(Day)

		if toggles.Day {
			r, ok := resolveTimeRange(candles, dayStart, dayEnd)
			add(AutoDay, r, ok)
		}
		if toggles.Week {
			r, ok := resolveTimeRange(candles, dayStart.Add(-6*Day), dayEnd)
			add(AutoWeek, r, ok)
		}
		if toggles.Session {
			add(AutoSession, IndexRange{Start: SessionStart(candles), End: len(candles) - 1}, true)
		}
		if toggles.Month {
			lastUTC := last.UTC()
			monthStart := time.Date(lastUTC.Year(), lastUTC.Month(), 1, 0, 0, 0, 0, time.UTC)
			r, ok := resolveTimeRange(candles, monthStart, monthStart.AddDate(0, 1, 0))
			add(AutoMonth, r, ok)
		}
	}

	if toggles.Visible {
		add(AutoVisible, visible, true)
	}
	return ranges
}

// SessionStart индекс первой свечи текущей сессии: идём назад от последней свечи,
// пока пауза между соседними свечами не превысит SessionGap
func SessionStart(candles []models.Candle) int {
	start := len(candles) - 1
	for i := len(candles) - 2; i >= 0; i-- {
		ts, next := candles[i].Time, candles[i+1].Time
		if ts.IsZero() || next.IsZero() {
			break
		}
		if next.Sub(ts) > SessionGap {
			return i + 1
		}
		start = i
	}
	return start
}

// resolveTimeRange первая и последняя свеча со временем в [from, to)
func resolveTimeRange(candles []models.Candle, from, to time.Time) (IndexRange, bool) {
	r := IndexRange{Start: -1, End: -1}
	for i, c := range candles {
		if c.Time.IsZero() {
			continue
		}
		if !c.Time.Before(from) && c.Time.Before(to) {
			if r.Start < 0 {
				r.Start = i
			}
			r.End = i
		}
	}
	return r, r.Start >= 0
}
