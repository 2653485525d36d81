package profile

import (
	"math"

	"github.com/skalibog/vpchart/pkg/models"
)

// Доли объёма свечи в профиле диапазона
const (
	BodyShare = 0.7
	WickShare = (1 - BodyShare) / 2
)

// Bin уровень профиля: нижняя граница цены и объём
type Bin struct {
	Price  float64
	Volume float64
}

// Profile объёмный профиль по набору свечей
type Profile struct {
	Bins        []Bin
	Step        float64
	MinPrice    float64
	MaxPrice    float64
	POCIndex    int
	MaxVol      float64
	TotalVolume float64
	VALowPrice  float64
	VAHighPrice float64
}

// POCPrice нижняя граница уровня с максимальным объёмом
func (p *Profile) POCPrice() float64 {
	return p.Bins[p.POCIndex].Price
}

// BuildMain строит основной профиль видимого окна: весь объём свечи относится
// к уровню, содержащему середину тела (open+close)/2.
// minPrice/maxPrice можно не задавать (NaN), тогда диапазон берётся по свечам.
func BuildMain(candles []models.Candle, minPrice, maxPrice float64, bins int) *Profile {
	h := newHistogram(candles, minPrice, maxPrice, max(bins, MinFixedBins))
	if h == nil {
		return nil
	}

	for _, c := range candles {
		if !c.Valid() || !positive(c.Volume) {
			continue
		}
		h.bins[h.index(c.Mid())].Volume += c.Volume
	}
	return h.finish()
}

// BuildRange строит профиль диапазона: 70% объёма свечи распределяется по уровням,
// которые перекрывает тело, оставшиеся 30% поровну между верхней и нижней тенью,
// пропорционально длине перекрытия.
func BuildRange(candles []models.Candle, minPrice, maxPrice float64, bins int) *Profile {
	h := newHistogram(candles, minPrice, maxPrice, max(bins, MinRangeBins))
	if h == nil {
		return nil
	}

	for _, c := range candles {
		if !c.Valid() || !positive(c.Volume) {
			continue
		}
		bodyLow := math.Min(c.Open, c.Close)
		bodyHigh := math.Max(c.Open, c.Close)
		low := math.Min(c.Low, bodyLow)
		high := math.Max(c.High, bodyHigh)

		h.spread(bodyLow, bodyHigh, c.Volume*BodyShare)
		h.spread(low, bodyLow, c.Volume*WickShare)
		h.spread(bodyHigh, high, c.Volume*WickShare)
	}
	return h.finish()
}

type histogram struct {
	bins     []Bin
	min, max float64
	step     float64
	epsilon  float64
}

func newHistogram(candles []models.Candle, minPrice, maxPrice float64, count int) *histogram {
	if len(candles) == 0 {
		return nil
	}

	lo, hi := minPrice, maxPrice
	if !finite(lo) || !finite(hi) || lo == hi {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, c := range candles {
			if !c.Valid() {
				continue
			}
			lo = math.Min(lo, c.Low)
			hi = math.Max(hi, c.High)
		}
	}
	if !finite(lo) || !finite(hi) || lo == hi {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	step := (hi - lo) / float64(count)
	if !finite(step) || step <= 0 {
		return nil
	}

	bins := make([]Bin, count)
	for i := range bins {
		bins[i].Price = lo + float64(i)*step
	}

	return &histogram{
		bins:    bins,
		min:     lo,
		max:     hi,
		step:    step,
		epsilon: math.Max(step*0.05, (hi-lo)*1e-5),
	}
}

// index уровень, содержащий цену; цены за пределами диапазона прижимаются к краям
func (h *histogram) index(price float64) int {
	idx := int(math.Floor((price - h.min) / h.step))
	return clampInt(idx, 0, len(h.bins)-1)
}

// spread раскладывает объём по уровням, перекрытым интервалом [a, b].
// Интервал короче epsilon целиком уходит в ближайший уровень.
func (h *histogram) spread(a, b, volume float64) {
	if volume <= 0 {
		return
	}
	a = math.Max(a, h.min)
	b = math.Min(b, h.max)
	if b-a < h.epsilon {
		h.bins[h.index((a+b)/2)].Volume += volume
		return
	}

	first, last := h.index(a), h.index(b)
	overlaps := make([]float64, last-first+1)
	covered := 0.0
	for i := first; i <= last; i++ {
		binLow := h.bins[i].Price
		binHigh := binLow + h.step
		if i == len(h.bins)-1 {
			binHigh = h.max
		}
		o := math.Min(b, binHigh) - math.Max(a, binLow)
		if o > 0 {
			overlaps[i-first] = o
			covered += o
		}
	}
	if covered <= 0 {
		h.bins[h.index((a+b)/2)].Volume += volume
		return
	}

	for i, o := range overlaps {
		if o > 0 {
			h.bins[first+i].Volume += volume * o / covered
		}
	}
}

// finish находит POC, общий объём и зону стоимости. Профиль без объёма не строится.
func (h *histogram) finish() *Profile {
	p := &Profile{
		Bins:     h.bins,
		Step:     h.step,
		MinPrice: h.min,
		MaxPrice: h.max,
	}
	for i, b := range h.bins {
		p.TotalVolume += b.Volume
		if b.Volume > p.MaxVol {
			p.MaxVol = b.Volume
			p.POCIndex = i
		}
	}
	if p.MaxVol <= 0 {
		return nil
	}

	left, right := ValueArea(p.Bins, p.POCIndex)
	p.VALowPrice = p.Bins[left].Price
	p.VAHighPrice = p.Bins[right].Price + p.Step
	return p
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
