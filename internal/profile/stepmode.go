package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Границы числа уровней профиля
const (
	MinAutoBins  = 16
	MaxAutoBins  = 120
	MinFixedBins = 8
	MaxFixedBins = 200
	MinRangeBins = 8
	MaxRangeBins = 120
)

// StepMode режим шага основного профиля: Auto или FixedBins(n)
type StepMode struct {
	fixed bool
	bins  int
}

// Auto число уровней выбирается по количеству видимых свечей
func Auto() StepMode {
	return StepMode{}
}

// FixedBins фиксированное число уровней
func FixedBins(n int) StepMode {
	return StepMode{fixed: true, bins: n}
}

// IsAuto сообщает, что режим автоматический
func (m StepMode) IsAuto() bool {
	return !m.fixed
}

// ParseStepMode разбирает "auto", "50" или "fixed-50"
func ParseStepMode(s string) (StepMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return Auto(), nil
	}

	n, err := strconv.Atoi(strings.TrimPrefix(s, "fixed-"))
	if err != nil || n <= 0 {
		return StepMode{}, fmt.Errorf("неизвестный режим шага профиля %q", s)
	}
	return FixedBins(n), nil
}

// String обратное к ParseStepMode
func (m StepMode) String() string {
	if m.IsAuto() {
		return "auto"
	}
	return fmt.Sprintf("fixed-%d", m.bins)
}

// MainBins число уровней основного профиля для окна из visibleCount свечей
func (m StepMode) MainBins(visibleCount int) int {
	if m.fixed {
		return clampInt(m.bins, MinFixedBins, MaxFixedBins)
	}
	approx := visibleCount / 3
	if approx <= 0 {
		approx = MinAutoBins
	}
	return clampInt(approx, MinAutoBins, MaxAutoBins)
}

// RangeBins число уровней профиля диапазона: среднее между count/2 и высотой
// ценовой панели / 8 пикселей
func RangeBins(count int, priceAreaHeight float64) int {
	base := clampInt(max(count, 1)/2, 12, MaxRangeBins)
	if math.IsNaN(priceAreaHeight) || math.IsInf(priceAreaHeight, 0) || priceAreaHeight <= 0 {
		return clampInt(base, MinRangeBins, MaxRangeBins)
	}

	byHeight := clampInt(int(math.Floor(priceAreaHeight/8)), 10, MaxRangeBins)
	return clampInt(int(math.Round(float64(base+byHeight)/2)), MinRangeBins, MaxRangeBins)
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
