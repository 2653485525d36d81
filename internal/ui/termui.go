package ui

import (
	"fmt"
	"image/color"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/engine"
	"github.com/skalibog/vpchart/internal/interaction"
	"github.com/skalibog/vpchart/internal/loader"
	"github.com/skalibog/vpchart/internal/render"
	"github.com/skalibog/vpchart/pkg/logger"
)

// Стили UI
var (
	primaryColor = lipgloss.Color("#0077cc")
	errorColor   = lipgloss.Color("#cc3300")
	mutedColor   = lipgloss.Color("#999999")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d7dee9")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)
)

const (
	headerRows = 1
	// панорамирование стрелками, баров за нажатие
	panStep = 10
)

const helpText = "мышь: ЛКМ выделение, ПКМ сдвиг, СКМ перекрестие, колесо масштаб · " +
	"←/→ сдвиг, +/- масштаб, p закрепить, d удалить, c очистить, esc сброс, " +
	"v профиль, r диапазоны, 1-5 авто, s тикер, t таймфрейм, q выход"

// Options что показывать и между чем переключаться
type Options struct {
	Provider   string
	Symbols    []string
	Timeframes []string
	Symbol     string
	Timeframe  string
}

// TermUI представляет терминальный интерфейс
type TermUI struct {
	session  *engine.Session
	renderer *render.Renderer
	loader   *loader.Loader
	config   config.UIConfig
	opts     Options
	bg       color.RGBA

	symbol    string
	timeframe string
	loading   bool
	lastErr   error

	width  int
	height int
}

// Сообщения для обновления UI
type resultMsg loader.Result

// bubbleModel - модель для bubbletea
type bubbleModel struct {
	ui *TermUI
}

// NewTermUI создает интерфейс поверх сессии и загрузчика
func NewTermUI(cfg config.UIConfig, session *engine.Session, renderer *render.Renderer, l *loader.Loader, opts Options) *TermUI {
	if cfg.CellWidth <= 0 {
		cfg.CellWidth = 4
	}
	if cfg.CellHeight <= 0 {
		cfg.CellHeight = 8
	}
	bg := renderer.Style().Background
	return &TermUI{
		session:   session,
		renderer:  renderer,
		loader:    l,
		config:    cfg,
		opts:      opts,
		bg:        color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255},
		symbol:    opts.Symbol,
		timeframe: opts.Timeframe,
		width:     120,
		height:    40,
	}
}

// Run запускает интерфейс и блокируется до выхода
func (ui *TermUI) Run() error {
	program := tea.NewProgram(bubbleModel{ui: ui}, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

func waitForResult(ch <-chan loader.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(<-ch)
	}
}

// request ставит загрузку текущего тикера и таймфрейма
func (ui *TermUI) request() {
	ui.loading = true
	ui.lastErr = nil
	token := ui.loader.Request(ui.symbol, ui.timeframe)
	logger.Debug("Запрошена загрузка",
		zap.Uint64("token", token),
		zap.String("symbol", ui.symbol),
		zap.String("timeframe", ui.timeframe))
}

func (ui *TermUI) applyResult(r loader.Result) {
	if !ui.loader.IsCurrent(r.Token) {
		return
	}
	ui.loading = false
	if r.Err != nil {
		ui.lastErr = r.Err
		return
	}
	ui.session.SetSeries(r.Series)
}

func (ui *TermUI) chartRows() int {
	rows := ui.height - headerRows - 1
	if ui.config.ShowHelp {
		rows--
	}
	return max(rows, 1)
}

// resize пересчитывает размер растра по размеру терминала
func (ui *TermUI) resize(width, height int) {
	ui.width, ui.height = width, height
	ui.session.Resize(ui.width*ui.config.CellWidth, ui.chartRows()*ui.config.CellHeight)
}

// pointer переводит ячейку терминала в точку растра; ok=false вне графика
func (ui *TermUI) pointer(x, y int) (px, py float64, ok bool) {
	row := y - headerRows
	if row < 0 || row >= ui.chartRows() || x < 0 || x >= ui.width {
		return 0, 0, false
	}
	px = (float64(x) + 0.5) * float64(ui.config.CellWidth)
	py = (float64(row) + 0.5) * float64(ui.config.CellHeight)
	return px, py, true
}

func mouseButton(b tea.MouseButton) (interaction.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return interaction.ButtonPrimary, true
	case tea.MouseButtonRight:
		return interaction.ButtonSecondary, true
	case tea.MouseButtonMiddle:
		return interaction.ButtonMiddle, true
	}
	return 0, false
}

func (ui *TermUI) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		ui.session.Wheel(-1)
		return
	case tea.MouseButtonWheelDown:
		ui.session.Wheel(1)
		return
	}

	x, y, inside := ui.pointer(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		button, ok := mouseButton(msg.Button)
		if !ok || !inside {
			return
		}
		ui.session.PointerDown(interaction.PointerEvent{Button: button, X: x, Y: y})
	case tea.MouseActionMotion:
		if !inside {
			ui.session.PointerLeave()
			return
		}
		ui.session.PointerMove(interaction.PointerEvent{X: x, Y: y})
	case tea.MouseActionRelease:
		ui.session.PointerUp()
	}
}

func next(list []string, cur string) string {
	if len(list) == 0 {
		return cur
	}
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// handleKey возвращает true для выхода
func (ui *TermUI) handleKey(msg tea.KeyMsg) bool {
	opts := ui.session.ProfileOptions()
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	case "esc":
		ui.session.PointerLeave()
		ui.session.ClearSelection()
	case "left":
		ui.session.Pan(panStep)
	case "right":
		ui.session.Pan(-panStep)
	case "+", "=":
		ui.session.Wheel(-1)
	case "-":
		ui.session.Wheel(1)
	case "p":
		ui.session.Pin()
	case "d":
		if fixed := ui.session.State().FixedRanges; len(fixed) > 0 {
			ui.session.RemoveFixed(fixed[len(fixed)-1].ID)
		}
	case "c":
		ui.session.ClearFixed()
	case "v":
		opts.Visible = !opts.Visible
		ui.session.SetProfileOptions(opts)
	case "r":
		opts.RangeEnabled = !opts.RangeEnabled
		ui.session.SetProfileOptions(opts)
	case "1":
		opts.Auto.Day = !opts.Auto.Day
		ui.session.SetProfileOptions(opts)
	case "2":
		opts.Auto.Week = !opts.Auto.Week
		ui.session.SetProfileOptions(opts)
	case "3":
		opts.Auto.Session = !opts.Auto.Session
		ui.session.SetProfileOptions(opts)
	case "4":
		opts.Auto.Month = !opts.Auto.Month
		ui.session.SetProfileOptions(opts)
	case "5":
		opts.Auto.Visible = !opts.Auto.Visible
		ui.session.SetProfileOptions(opts)
	case "s":
		ui.symbol = next(ui.opts.Symbols, ui.symbol)
		ui.request()
	case "t":
		ui.timeframe = next(ui.opts.Timeframes, ui.timeframe)
		ui.request()
	}
	return false
}

// Методы для bubbletea
func (m bubbleModel) Init() tea.Cmd {
	m.ui.request()
	return waitForResult(m.ui.loader.Results())
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ui.handleKey(msg) {
			return m, tea.Quit
		}
	case tea.MouseMsg:
		m.ui.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.ui.resize(msg.Width, msg.Height)
	case resultMsg:
		m.ui.applyResult(loader.Result(msg))
		return m, waitForResult(m.ui.loader.Results())
	}
	return m, nil
}

func (m bubbleModel) View() string {
	ui := m.ui
	view := ui.session.View()

	title := titleStyle.Render(fmt.Sprintf("vpchart · %s · %s · %s", strings.ToUpper(ui.opts.Provider), ui.symbol, ui.timeframe))

	var body string
	if view.Empty() {
		body = lipgloss.Place(ui.width, ui.chartRows(), lipgloss.Center, lipgloss.Center, "Нет данных")
	} else {
		img := ui.renderer.Render(view, ui.width*ui.config.CellWidth, ui.chartRows()*ui.config.CellHeight)
		body = renderCells(sampleCells(img, ui.width, ui.chartRows(), ui.bg))
	}

	parts := []string{title, body, ui.statusLine(view)}
	if ui.config.ShowHelp {
		parts = append(parts, footerStyle.Render(helpText))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (ui *TermUI) statusLine(view engine.View) string {
	switch {
	case ui.lastErr != nil:
		return errorStyle.Render("Ошибка: " + ui.lastErr.Error())
	case ui.loading:
		return statusStyle.Render("Загрузка...")
	}

	if c, ok := view.HoveredCandle(); ok {
		return statusStyle.Render(fmt.Sprintf("%s  O %s  H %s  L %s  C %s  V %.0f",
			c.Time.Format("2006-01-02 15:04"),
			render.FormatPrice(c.Open), render.FormatPrice(c.High),
			render.FormatPrice(c.Low), render.FormatPrice(c.Close), c.Volume))
	}

	st := ui.session.State()
	return statusStyle.Render(fmt.Sprintf("баров %d  сдвиг %d  закреплено %d",
		st.Viewport.BarsPerScreen, view.Window.Offset, len(st.FixedRanges)))
}
