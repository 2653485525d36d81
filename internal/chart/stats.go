package chart

import (
	"math"

	"github.com/skalibog/vpchart/pkg/models"
)

// PriceStats экстремумы цены и объёма в видимом окне
type PriceStats struct {
	MinPrice  float64
	MaxPrice  float64
	MaxVolume float64
}

// ComputeStats считает статистику по видимым свечам.
// Пустое окно даёт диапазон [0, 1], вырожденный диапазон расширяется на 1 в обе стороны.
func ComputeStats(candles []models.Candle) PriceStats {
	minPrice := math.Inf(1)
	maxPrice := math.Inf(-1)
	maxVolume := 0.0

	for _, c := range candles {
		if !c.Valid() {
			continue
		}
		if c.Low < minPrice {
			minPrice = c.Low
		}
		if c.High > maxPrice {
			maxPrice = c.High
		}
		if c.Volume > maxVolume {
			maxVolume = c.Volume
		}
	}

	if math.IsInf(minPrice, 0) || math.IsInf(maxPrice, 0) {
		minPrice, maxPrice = 0, 1
	}
	if minPrice == maxPrice {
		minPrice--
		maxPrice++
	}
	if maxVolume <= 0 {
		maxVolume = 1
	}

	return PriceStats{MinPrice: minPrice, MaxPrice: maxPrice, MaxVolume: maxVolume}
}
