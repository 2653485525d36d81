package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/vpchart/internal/analysis/technical"
	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/engine"
	"github.com/skalibog/vpchart/internal/interaction"
	"github.com/skalibog/vpchart/internal/loader"
	"github.com/skalibog/vpchart/internal/profile"
	"github.com/skalibog/vpchart/internal/render"
	"github.com/skalibog/vpchart/pkg/models"
)

type staticFetcher struct{}

func (staticFetcher) Name() string { return "static" }

func (staticFetcher) FetchCandles(_ context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	return models.NewSeries(symbol, timeframe, testCandles(200)), nil
}

func testCandles(n int) []models.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		base := 100 + float64(i%20)
		out[i] = models.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   base,
			High:   base + 2,
			Low:    base - 2,
			Close:  base + 1,
			Volume: float64(10 + i%7),
		}
	}
	return out
}

func newTestUI(t *testing.T) *TermUI {
	t.Helper()
	session := engine.NewSession(
		interaction.NewController(interaction.Options{}),
		technical.NewAnalyzer(config.ProfileConfig{}),
		engine.ProfileOptions{Visible: true, StepMode: profile.Auto(), Width: 80, RangeEnabled: true},
		100,
	)
	l := loader.New(staticFetcher{}, config.LoaderConfig{DebounceMs: 1, TimeoutSeconds: 5})
	t.Cleanup(func() { _ = l.Close() })

	ui := NewTermUI(config.UIConfig{CellWidth: 4, CellHeight: 8, ShowHelp: true}, session, render.NewRenderer(render.DefaultStyle()), l, Options{
		Provider:   "moex",
		Symbols:    []string{"SBER", "GAZP"},
		Timeframes: []string{"10m", "1h", "1d"},
		Symbol:     "SBER",
		Timeframe:  "1h",
	})
	ui.resize(120, 40)
	return ui
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSampleCells_KeepsThinLines(t *testing.T) {
	bg := color.RGBA{R: 10, G: 10, B: 10, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, 8, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	line := color.RGBA{R: 250, G: 200, B: 0, A: 255}
	img.SetRGBA(1, 13, line)

	grid := sampleCells(img, 2, 2, bg)
	require.Len(t, grid, 2)
	require.Len(t, grid[0], 2)

	assert.Equal(t, bg, grid[0][0].top)
	assert.Equal(t, bg, grid[1][0].top)
	assert.Equal(t, line, grid[1][0].bottom)
	assert.Equal(t, bg, grid[1][1].bottom)

	assert.Nil(t, sampleCells(nil, 2, 2, bg))
	assert.Nil(t, sampleCells(img, 0, 2, bg))
}

func TestRenderCells(t *testing.T) {
	a := cell{top: color.RGBA{R: 255, A: 255}, bottom: color.RGBA{B: 255, A: 255}}
	b := cell{top: color.RGBA{G: 255, A: 255}, bottom: color.RGBA{A: 255}}
	out := renderCells([][]cell{{a, a, b}, {b, b, b}})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 3, strings.Count(lines[0], halfBlock))
	assert.Equal(t, 3, strings.Count(lines[1], halfBlock))
}

func TestNext(t *testing.T) {
	list := []string{"10m", "1h", "1d"}
	assert.Equal(t, "1d", next(list, "1h"))
	assert.Equal(t, "10m", next(list, "1d"))
	assert.Equal(t, "10m", next(list, "4h"))
	assert.Equal(t, "1h", next(nil, "1h"))
}

func TestPointer(t *testing.T) {
	ui := newTestUI(t)

	x, y, ok := ui.pointer(10, 1)
	require.True(t, ok)
	assert.Equal(t, 42.0, x)
	assert.Equal(t, 4.0, y)

	_, _, ok = ui.pointer(10, 0)
	assert.False(t, ok, "строка заголовка")
	_, _, ok = ui.pointer(10, 39)
	assert.False(t, ok, "строка подсказки")
	assert.Equal(t, 37, ui.chartRows())
}

func TestApplyResult_DropsStale(t *testing.T) {
	ui := newTestUI(t)
	series := models.NewSeries("SBER", "1h", testCandles(200))

	ui.applyResult(loader.Result{Token: 0, Series: series})
	require.Same(t, series, ui.session.Series())

	ui.request()
	assert.True(t, ui.loading)
	ui.applyResult(loader.Result{Token: 0, Series: models.NewSeries("GAZP", "1h", testCandles(50))})
	assert.Same(t, series, ui.session.Series())
	assert.True(t, ui.loading)

	ui.applyResult(loader.Result{Token: 1, Err: errors.New("down")})
	assert.False(t, ui.loading)
	assert.EqualError(t, ui.lastErr, "down")
	assert.Same(t, series, ui.session.Series())
}

func TestMouseSelectionAndKeys(t *testing.T) {
	ui := newTestUI(t)
	ui.applyResult(loader.Result{Token: 0, Series: models.NewSeries("SBER", "1h", testCandles(200))})
	require.False(t, ui.session.View().Empty())

	ui.handleMouse(tea.MouseMsg{X: 20, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	ui.handleMouse(tea.MouseMsg{X: 60, Y: 10, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	ui.handleMouse(tea.MouseMsg{X: 60, Y: 10, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	require.NotNil(t, ui.session.State().Selection)

	assert.False(t, ui.handleKey(key("p")))
	require.Len(t, ui.session.State().FixedRanges, 1)
	assert.False(t, ui.handleKey(key("d")))
	assert.Empty(t, ui.session.State().FixedRanges)

	ui.handleKey(key("esc"))
	assert.Nil(t, ui.session.State().Selection)

	ui.handleMouse(tea.MouseMsg{X: 20, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 95, ui.session.State().Viewport.BarsPerScreen)
	ui.handleKey(key("-"))
	assert.Equal(t, 100, ui.session.State().Viewport.BarsPerScreen)

	ui.handleKey(key("left"))
	assert.Equal(t, panStep, ui.session.State().Viewport.RightOffset)
	ui.handleKey(key("right"))
	assert.Equal(t, 0, ui.session.State().Viewport.RightOffset)

	ui.handleKey(key("v"))
	assert.False(t, ui.session.ProfileOptions().Visible)
	assert.Nil(t, ui.session.View().MainProfile)
	ui.handleKey(key("1"))
	assert.True(t, ui.session.ProfileOptions().Auto.Day)

	ui.handleKey(key("t"))
	assert.Equal(t, "1d", ui.timeframe)
	assert.True(t, ui.loading)
	ui.handleKey(key("s"))
	assert.Equal(t, "GAZP", ui.symbol)

	assert.True(t, ui.handleKey(key("q")))
}

func TestView(t *testing.T) {
	ui := newTestUI(t)
	m := bubbleModel{ui: ui}

	out := m.View()
	assert.Contains(t, out, "Нет данных")
	assert.Contains(t, out, "MOEX · SBER · 1h")

	ui.applyResult(loader.Result{Token: 0, Series: models.NewSeries("SBER", "1h", testCandles(200))})
	out = m.View()
	assert.Contains(t, out, halfBlock)
	assert.Contains(t, out, "баров 100")
}

func TestUpdate_WindowSize(t *testing.T) {
	ui := newTestUI(t)
	m := bubbleModel{ui: ui}

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	assert.Nil(t, cmd)
	assert.Equal(t, 80, ui.width)
	assert.Equal(t, 27, ui.chartRows())

	_, cmd = m.Update(key("q"))
	require.NotNil(t, cmd)
}
