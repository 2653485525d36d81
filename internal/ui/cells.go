package ui

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// halfBlock верхняя половина ячейки цветом текста, нижняя цветом фона
const halfBlock = "▀"

// cell цвета верхней и нижней половины ячейки терминала
type cell struct {
	top    color.RGBA
	bottom color.RGBA
}

// sampleCells сводит изображение к сетке cols×rows ячеек по две точки на ячейку.
// Из каждой половины берётся точка, сильнее всего отличающаяся от фона,
// чтобы тонкие линии и подписи не пропадали.
func sampleCells(img *image.RGBA, cols, rows int, bg color.RGBA) [][]cell {
	if img == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	b := img.Bounds()
	cw := float64(b.Dx()) / float64(cols)
	ch := float64(b.Dy()) / float64(rows)

	grid := make([][]cell, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]cell, cols)
		y0 := b.Min.Y + int(float64(r)*ch)
		yMid := b.Min.Y + int((float64(r)+0.5)*ch)
		y1 := b.Min.Y + int(float64(r+1)*ch)
		for c := 0; c < cols; c++ {
			x0 := b.Min.X + int(float64(c)*cw)
			x1 := b.Min.X + int(float64(c+1)*cw)
			grid[r][c] = cell{
				top:    dominant(img, image.Rect(x0, y0, x1, max(yMid, y0+1)), bg),
				bottom: dominant(img, image.Rect(x0, yMid, x1, max(y1, yMid+1)), bg),
			}
		}
	}
	return grid
}

func dominant(img *image.RGBA, r image.Rectangle, bg color.RGBA) color.RGBA {
	r = r.Intersect(img.Bounds())
	best, bestDist := bg, 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			px := img.RGBAAt(x, y)
			if d := distance(px, bg); d > bestDist {
				best, bestDist = px, d
			}
		}
	}
	return best
}

func distance(a, b color.RGBA) int {
	return absInt(int(a.R)-int(b.R)) + absInt(int(a.G)-int(b.G)) + absInt(int(a.B)-int(b.B))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func hex(c color.RGBA) lipgloss.Color {
	cc, _ := colorful.MakeColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	return lipgloss.Color(cc.Hex())
}

// renderCells печатает сетку полублоками; соседние ячейки одного цвета
// выводятся одним стилем
func renderCells(grid [][]cell) string {
	var sb strings.Builder
	for r, row := range grid {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < len(row); {
			run := 1
			for c+run < len(row) && row[c+run] == row[c] {
				run++
			}
			style := lipgloss.NewStyle().
				Foreground(hex(row[c].top)).
				Background(hex(row[c].bottom))
			sb.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			c += run
		}
	}
	return sb.String()
}
