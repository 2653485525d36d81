package chart

import (
	"math"
)

// Постоянные разметки (пиксели)
const (
	MinWidth  = 400
	MinHeight = 250

	PaddingTop      = 16
	PaddingBottom   = 28
	PaddingLeft     = 48
	PriceScaleWidth = 62
	RightPadding    = 10

	MinProfileWidth     = 40
	MaxProfileWidth     = 200
	DefaultProfileWidth = 80

	// Доля ценовой панели в высоте области графика
	PriceAreaRatio = 0.7
)

// GeometryInput входные данные построителя геометрии
type GeometryInput struct {
	Width        int
	Height       int
	VisibleCount int
	MinPrice     float64
	MaxPrice     float64
	MaxVolume    float64
	ProfileWidth int
}

// Layout пиксельная разметка графика
type Layout struct {
	Width             float64
	Height            float64
	PaddingTop        float64
	PaddingLeft       float64
	PaddingBottom     float64
	ChartRight        float64
	FullChartWidth    float64
	ProfileLeft       float64
	ProfileRight      float64
	PriceScaleX       float64
	PriceScaleWidth   float64
	PriceTop          float64
	PriceBottom       float64
	VolumeTop         float64
	VolumeBottom      float64
	PriceChartHeight  float64
	VolumeChartHeight float64
	CandleSpacing     float64
	CandleWidth       float64
	VolumeBarWidth    float64
	ProfileWidth      float64
}

// Geometry разметка и параметры преобразований цена/объём/индекс ↔ координаты.
// Значение сравнимо через ==, одинаковый вход всегда даёт одинаковый результат.
type Geometry struct {
	Layout    Layout
	MinPrice  float64
	MaxPrice  float64
	MaxVolume float64
	Count     int
}

// BuildGeometry строит геометрию. Возвращает nil для поверхности нулевого размера,
// слишком маленькая поверхность дотягивается до 400×250.
func BuildGeometry(in GeometryInput) *Geometry {
	if in.Width <= 0 || in.Height <= 0 {
		return nil
	}

	width := float64(max(MinWidth, in.Width))
	height := float64(max(MinHeight, in.Height))

	minPrice, maxPrice := in.MinPrice, in.MaxPrice
	if !finite(minPrice) || !finite(maxPrice) {
		minPrice, maxPrice = 0, 1
	}
	if minPrice > maxPrice {
		minPrice, maxPrice = maxPrice, minPrice
	}
	if minPrice == maxPrice {
		minPrice--
		maxPrice++
	}
	maxVolume := in.MaxVolume
	if !finite(maxVolume) || maxVolume <= 0 {
		maxVolume = 1
	}

	profileWidth := in.ProfileWidth
	if profileWidth <= 0 {
		profileWidth = DefaultProfileWidth
	}
	profileWidth = clampInt(profileWidth, MinProfileWidth, MaxProfileWidth)

	priceScaleRight := width - RightPadding
	priceScaleX := priceScaleRight - PriceScaleWidth
	chartRight := priceScaleX
	fullChartWidth := math.Max(100, chartRight-PaddingLeft)
	fullChartHeight := height - PaddingTop - PaddingBottom

	priceChartHeight := fullChartHeight * PriceAreaRatio
	volumeChartHeight := fullChartHeight * (1 - PriceAreaRatio)

	n := max(1, in.VisibleCount)
	spacing := fullChartWidth / float64(n)

	layout := Layout{
		Width:             width,
		Height:            height,
		PaddingTop:        PaddingTop,
		PaddingLeft:       PaddingLeft,
		PaddingBottom:     PaddingBottom,
		ChartRight:        chartRight,
		FullChartWidth:    fullChartWidth,
		ProfileLeft:       math.Max(PaddingLeft, chartRight-float64(profileWidth)),
		ProfileRight:      chartRight,
		PriceScaleX:       priceScaleX,
		PriceScaleWidth:   PriceScaleWidth,
		PriceTop:          PaddingTop,
		PriceBottom:       PaddingTop + priceChartHeight,
		VolumeTop:         PaddingTop + priceChartHeight,
		VolumeBottom:      PaddingTop + fullChartHeight,
		PriceChartHeight:  priceChartHeight,
		VolumeChartHeight: volumeChartHeight,
		CandleSpacing:     spacing,
		CandleWidth:       math.Max(3, spacing*0.6),
		VolumeBarWidth:    math.Max(2, spacing*0.5),
		ProfileWidth:      float64(profileWidth),
	}

	return &Geometry{
		Layout:    layout,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		MaxVolume: maxVolume,
		Count:     n,
	}
}

// PriceToY цена → y
func (g *Geometry) PriceToY(price float64) float64 {
	t := (price - g.MinPrice) / (g.MaxPrice - g.MinPrice)
	return g.Layout.PriceTop + (1-t)*g.Layout.PriceChartHeight
}

// YToPrice y → цена, y за пределами ценовой панели прижимается к её краям
func (g *Geometry) YToPrice(y float64) float64 {
	t := clamp((y-g.Layout.PriceTop)/g.Layout.PriceChartHeight, 0, 1)
	return g.MinPrice + (1-t)*(g.MaxPrice-g.MinPrice)
}

// VolumeToY объём → y в панели объёмов
func (g *Geometry) VolumeToY(volume float64) float64 {
	t := volume / g.MaxVolume
	return g.Layout.VolumeBottom - t*g.Layout.VolumeChartHeight
}

// IndexToX локальный индекс свечи → x центра свечи
func (g *Geometry) IndexToX(localIndex float64) float64 {
	return g.Layout.PaddingLeft + localIndex*g.Layout.CandleSpacing + g.Layout.CandleSpacing/2
}

// XToLocalIndex x → дробный локальный индекс в [0, Count-1]
func (g *Geometry) XToLocalIndex(x float64) float64 {
	clampedX := clamp(x, g.Layout.PaddingLeft, g.Layout.ChartRight)
	local := (clampedX - g.Layout.PaddingLeft) / g.Layout.CandleSpacing
	return clamp(local, 0, float64(g.Count-1))
}

// PickGlobalIndex глобальный индекс бара под координатой x
func (g *Geometry) PickGlobalIndex(x float64, startIndex, total int) int {
	if total <= 0 {
		return 0
	}
	global := startIndex + int(math.Round(g.XToLocalIndex(x)))
	return clampInt(global, 0, total-1)
}

// Box прямоугольник на поверхности
type Box struct {
	X0, X1 float64
	Y0, Y1 float64
}

// Width ширина прямоугольника
func (b Box) Width() float64 {
	return b.X1 - b.X0
}

// RangeBox прямоугольник для диапазона глобальных индексов [start, end] (концы в любом порядке).
// Диапазон, целиком лежащий вне окна, даёт false.
func (g *Geometry) RangeBox(start, end int, w Window) (Box, bool) {
	lo, hi := min(start, end), max(start, end)
	if w.Empty() || hi < w.Start || lo >= w.End {
		return Box{}, false
	}

	startLocal := max(lo-w.Start, 0)
	endLocal := min(hi-w.Start, w.Len()-1)

	half := g.Layout.CandleWidth / 2
	return Box{
		X0: g.IndexToX(float64(startLocal)) - half,
		X1: g.IndexToX(float64(endLocal)) + half,
		Y0: g.Layout.PriceTop,
		Y1: g.Layout.PriceBottom,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
