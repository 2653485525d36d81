package chart

import (
	"math"

	"github.com/skalibog/vpchart/pkg/models"
)

const (
	// MinBars минимальное число баров на экране
	MinBars = 20
	// DefaultBarsPerScreen масштаб по умолчанию
	DefaultBarsPerScreen = 140
)

// Window видимый срез серии свечей: [Start, End)
type Window struct {
	Candles   []models.Candle
	Start     int
	End       int
	Total     int
	Bars      int
	Offset    int
	MaxOffset int
}

// Len число видимых свечей
func (w Window) Len() int {
	return w.End - w.Start
}

// Empty нет данных для отрисовки
func (w Window) Empty() bool {
	return w.Len() <= 0
}

// Contains сообщает, попадает ли глобальный индекс в окно
func (w Window) Contains(index int) bool {
	return index >= w.Start && index < w.End
}

// ComputeWindow вычисляет видимое окно по масштабу и смещению от правого края
func ComputeWindow(candles []models.Candle, barsPerScreen, rightOffset int) Window {
	total := len(candles)
	if total == 0 {
		return Window{}
	}

	bars := clampInt(barsPerScreen, MinBars, math.MaxInt)
	if bars > total {
		bars = total
	}

	maxOffset := MaxOffset(total, bars)
	offset := clampInt(rightOffset, 0, maxOffset)

	end := total - offset
	start := end - bars
	if start < 0 {
		start = 0
	}

	return Window{
		Candles:   candles[start:end],
		Start:     start,
		End:       end,
		Total:     total,
		Bars:      bars,
		Offset:    offset,
		MaxOffset: maxOffset,
	}
}

// MaxOffset максимальное смещение от правого края
func MaxOffset(total, bars int) int {
	if total-bars > 0 {
		return total - bars
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
