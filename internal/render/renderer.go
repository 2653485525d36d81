package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"github.com/skalibog/vpchart/internal/chart"
	"github.com/skalibog/vpchart/internal/engine"
	"github.com/skalibog/vpchart/internal/profile"
	"github.com/skalibog/vpchart/pkg/models"
)

const (
	priceTicks    = 6
	mainBarHeight = 8
	minBarHeight  = 2
	maxBarHeight  = 10
	priceDecimals = 2
)

// Renderer рисует кадр на растровой поверхности. Решений не принимает:
// всё, что рисуется, уже посчитано в engine.View.
type Renderer struct {
	style Style
}

// NewRenderer создает отрисовщик с заданной палитрой
func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// Style палитра отрисовщика
func (r *Renderer) Style() Style {
	return r.style
}

// Render рисует кадр на новом изображении размером width×height
func (r *Renderer) Render(view engine.View, width, height int) *image.RGBA {
	if view.Geometry != nil {
		width = max(width, int(view.Geometry.Layout.Width))
		height = max(height, int(view.Geometry.Layout.Height))
	}
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	r.Draw(img, view)
	return img
}

// Draw рисует кадр поверх dst. Отсутствующая геометрия означает пустой фон.
func (r *Renderer) Draw(dst *image.RGBA, view engine.View) {
	c := newCanvas(dst)
	c.fill(dst.Bounds(), r.style.Background)
	if view.Empty() {
		return
	}

	g := view.Geometry
	r.drawGrid(c, g, view.Window)
	r.drawCandles(c, g, view.Window.Candles)
	r.drawVolumes(c, g, view.Window.Candles)
	r.drawMovingAverage(c, g, view.MovingAverage)

	if view.MainProfile != nil {
		r.drawMainProfile(c, g, view.MainProfile)
	}
	for _, bp := range view.AutoProfiles {
		r.drawBoxed(c, g, bp, r.style.autoStyle(profile.AutoKind(bp.Kind)))
	}
	for _, bp := range view.FixedProfiles {
		r.drawBoxed(c, g, bp, r.style.Fixed)
	}
	if view.RangeProfile != nil {
		r.drawBoxed(c, g, *view.RangeProfile, r.style.Selection)
	}

	r.drawScale(c, g)
	if view.Crosshair.Visible {
		hovered, ok := view.HoveredCandle()
		r.drawCrosshair(c, g, view.Crosshair.X, view.Crosshair.Y, hovered, ok)
	}
}

// WritePNG кодирует кадр в PNG
func (r *Renderer) WritePNG(w io.Writer, view engine.View, width, height int) error {
	if err := png.Encode(w, r.Render(view, width, height)); err != nil {
		return fmt.Errorf("ошибка кодирования PNG: %w", err)
	}
	return nil
}

func (r *Renderer) drawGrid(c *canvas, g *chart.Geometry, w chart.Window) {
	l := g.Layout
	step := max(1, w.Len()/8)
	for i := 0; i < w.Len(); i += step {
		c.vline(g.IndexToX(float64(i)), l.PriceTop, l.PriceBottom, r.style.Grid)
	}
	c.vline(l.PriceScaleX, l.PriceTop, l.PriceBottom, r.style.Grid)
}

func (r *Renderer) drawCandles(c *canvas, g *chart.Geometry, candles []models.Candle) {
	cw := g.Layout.CandleWidth
	for i, cd := range candles {
		x := g.IndexToX(float64(i))
		c.vline(x, g.PriceToY(cd.High), g.PriceToY(cd.Low), r.style.Wick)

		yOpen, yClose := g.PriceToY(cd.Open), g.PriceToY(cd.Close)
		top := math.Min(yOpen, yClose)
		height := math.Max(1, math.Abs(yOpen-yClose))

		body := r.style.Bear
		if cd.Close >= cd.Open {
			body = r.style.Bull
		}
		c.fillRect(x-cw/2, top, cw, height, body)
	}
}

func (r *Renderer) drawVolumes(c *canvas, g *chart.Geometry, candles []models.Candle) {
	l := g.Layout
	for i, cd := range candles {
		x := g.IndexToX(float64(i))
		top := g.VolumeToY(math.Max(cd.Volume, 0))
		col := r.style.BearVolume
		if cd.Close >= cd.Open {
			col = r.style.BullVolume
		}
		c.fillRect(x-l.VolumeBarWidth/2, top, l.VolumeBarWidth, math.Max(1, l.VolumeBottom-top), col)
	}
}

func (r *Renderer) drawMovingAverage(c *canvas, g *chart.Geometry, ma []float64) {
	prevX, prevY, has := 0.0, 0.0, false
	for i, v := range ma {
		if math.IsNaN(v) {
			has = false
			continue
		}
		x, y := g.IndexToX(float64(i)), g.PriceToY(v)
		if has {
			c.line(prevX, prevY, x, y, r.style.MovingAvg)
		}
		prevX, prevY, has = x, y, true
	}
}

// mainProfileWidth ширина основного профиля: настройка, ограниченная половиной области свечей
func mainProfileWidth(l chart.Layout) float64 {
	area := l.PriceScaleX - l.PaddingLeft
	lo := math.Min(area*0.8, 20)
	return math.Max(lo, math.Min(l.ProfileWidth, area*0.5))
}

func (r *Renderer) drawMainProfile(c *canvas, g *chart.Geometry, p *profile.Profile) {
	l := g.Layout

	if r.style.VAOpacity > 0 {
		yLow, yHigh := g.PriceToY(p.VALowPrice), g.PriceToY(p.VAHighPrice)
		top, bottom := math.Min(yLow, yHigh), math.Max(yLow, yHigh)
		c.fillRect(l.PaddingLeft, top, l.PriceScaleX-l.PaddingLeft, bottom-top, WithAlpha(r.style.VABand, r.style.VAOpacity))
	}

	maxWidth := mainProfileWidth(l)
	for _, b := range p.Bins {
		yc, h := binBar(g, b.Price, p.Step, mainBarHeight)
		w := barWidth(b.Volume, p.MaxVol, maxWidth)
		c.fillRect(l.PriceScaleX-w, yc-h/2, w, h, r.style.Profile)
	}

	if !r.style.ShowPOC {
		return
	}
	poc := p.Bins[p.POCIndex]
	yc, h := binBar(g, poc.Price, p.Step, mainBarHeight)
	c.hline(l.PaddingLeft, l.PriceScaleX, yc, r.style.POC)
	w := barWidth(poc.Volume, p.MaxVol, maxWidth)
	c.fillRect(l.PriceScaleX-w, yc-h/2, w, h, r.style.POC)
}

func (r *Renderer) drawBoxed(c *canvas, g *chart.Geometry, bp engine.BoxedProfile, st RangeStyle) {
	box := bp.Box
	if box.Width() <= 0 {
		return
	}
	c.fillRect(box.X0, box.Y0, box.Width(), box.Y1-box.Y0, st.Fill)

	p := bp.Profile
	for _, b := range p.Bins {
		yc, h := binBar(g, b.Price, p.Step, maxBarHeight)
		yc = math.Min(box.Y1, math.Max(box.Y0, yc))
		w := barWidth(b.Volume, p.MaxVol, box.Width())
		c.fillRect(box.X1-w, yc-h/2, w, h, st.Profile)
	}
}

// binBar центр и высота полосы уровня на ценовой шкале
func binBar(g *chart.Geometry, price, step, maxHeight float64) (center, height float64) {
	yBottom, yTop := g.PriceToY(price), g.PriceToY(price+step)
	height = math.Max(minBarHeight, math.Min(maxHeight, math.Abs(yBottom-yTop)*0.9))
	return (yBottom + yTop) / 2, height
}

func barWidth(volume, maxVol, maxWidth float64) float64 {
	if maxVol <= 0 {
		return 0
	}
	return math.Max(0, math.Min(volume/maxVol*maxWidth, maxWidth))
}

func (r *Renderer) drawScale(c *canvas, g *chart.Geometry) {
	l := g.Layout
	c.fillRect(l.PriceScaleX+1, l.PriceTop, l.PriceScaleWidth-1, l.PriceBottom-l.PriceTop, r.style.ScaleBG)

	for i := 0; i <= priceTicks; i++ {
		y := l.PriceTop + float64(i)/priceTicks*l.PriceChartHeight
		c.hline(l.PriceScaleX, l.PriceScaleX+4, y, r.style.Grid)
		c.text(l.PriceScaleX+6, y, FormatPrice(g.YToPrice(y)), r.style.Text)
	}
}

func (r *Renderer) drawCrosshair(c *canvas, g *chart.Geometry, x, y float64, hovered models.Candle, ok bool) {
	l := g.Layout
	c.hline(l.PaddingLeft, l.ChartRight, y, r.style.Crosshair)
	c.vline(x, l.PriceTop, l.PriceBottom, r.style.Crosshair)

	c.label(l.PriceScaleX+4, y, FormatPrice(g.YToPrice(y)), r.style.Text, r.style.LabelBG)

	if ok && !hovered.Time.IsZero() {
		date := hovered.Time.Format("2006-01-02")
		c.label(x-(c.textWidth(date)+8)/2, l.PriceBottom+14, date, r.style.Text, r.style.LabelBG)
	}
}

// FormatPrice цена с двумя знаками после запятой
func FormatPrice(price float64) string {
	if !finite(price) {
		return "-"
	}
	return decimal.NewFromFloat(price).StringFixed(priceDecimals)
}
