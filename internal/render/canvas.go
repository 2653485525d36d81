package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// canvas примитивы рисования поверх *image.RGBA с альфа-смешиванием
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func newCanvas(img *image.RGBA) *canvas {
	return &canvas{img: img, face: basicfont.Face7x13}
}

// fillRect закрашивает прямоугольник [x, x+w) × [y, y+h); ненулевой размер даёт хотя бы пиксель
func (c *canvas) fillRect(x, y, w, h float64, col color.NRGBA) {
	if w <= 0 || h <= 0 || !finite(x) || !finite(y) || !finite(w) || !finite(h) {
		return
	}
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	x1, y1 := int(math.Round(x+w)), int(math.Round(y+h))
	if x1 == x0 {
		x1++
	}
	if y1 == y0 {
		y1++
	}
	c.fill(image.Rect(x0, y0, x1, y1), col)
}

func (c *canvas) fill(r image.Rectangle, col color.NRGBA) {
	if col.A == 0 {
		return
	}
	op := draw.Over
	if col.A == 255 {
		op = draw.Src
	}
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, op)
}

// hline горизонтальная линия толщиной в пиксель
func (c *canvas) hline(x0, x1, y float64, col color.NRGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	c.fillRect(x0, math.Floor(y), x1-x0, 1, col)
}

// vline вертикальная линия толщиной в пиксель
func (c *canvas) vline(x, y0, y1 float64, col color.NRGBA) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	c.fillRect(math.Floor(x), y0, 1, math.Max(y1-y0, 1), col)
}

// line отрезок произвольного направления (Брезенхем)
func (c *canvas) line(fx0, fy0, fx1, fy1 float64, col color.NRGBA) {
	if !finite(fx0) || !finite(fy0) || !finite(fx1) || !finite(fy1) {
		return
	}
	x0, y0 := int(math.Round(fx0)), int(math.Round(fy0))
	x1, y1 := int(math.Round(fx1)), int(math.Round(fy1))

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		c.fill(image.Rect(x0, y0, x0+1, y0+1), col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// textWidth ширина строки в пикселях
func (c *canvas) textWidth(s string) float64 {
	return float64(font.MeasureString(c.face, s).Round())
}

// text выводит строку; y задаёт вертикальную середину строки
func (c *canvas) text(x, midY float64, s string, col color.NRGBA) {
	m := c.face.Metrics()
	baseline := midY + float64(m.Ascent.Round()-m.Descent.Round())/2
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(baseline))),
	}
	d.DrawString(s)
}

// label текст на подложке
func (c *canvas) label(x, midY float64, s string, fg, bg color.NRGBA) {
	const padX, h = 4, 16
	w := c.textWidth(s) + 2*padX
	c.fillRect(x, midY-h/2, w, h, bg)
	c.text(x+padX, midY, s, fg)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
