package engine

import (
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/analysis/technical"
	"github.com/skalibog/vpchart/internal/interaction"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

// Session владеет серией свечей и состоянием взаимодействия и пересчитывает кадр
// после каждого перехода. Используется из одного потока событий.
type Session struct {
	controller  *interaction.Controller
	analyzer    *technical.Analyzer
	options     ProfileOptions
	defaultBars int

	series *models.CandleSeries
	ma     []float64
	state  interaction.State
	width  int
	height int
	view   View
}

// NewSession создаёт сессию без данных
func NewSession(controller *interaction.Controller, analyzer *technical.Analyzer, options ProfileOptions, defaultBars int) *Session {
	s := &Session{
		controller:  controller,
		analyzer:    analyzer,
		options:     options,
		defaultBars: defaultBars,
	}
	s.state = s.initialState()
	s.recompute()
	return s
}

func (s *Session) initialState() interaction.State {
	st := s.controller.Reset()
	if s.defaultBars > 0 {
		st.Viewport.BarsPerScreen = s.defaultBars
	}
	return st
}

// SetSeries заменяет серию целиком. Смена тикера или таймфрейма сбрасывает состояние.
func (s *Session) SetSeries(series *models.CandleSeries) {
	if s.series.Key() != series.Key() {
		logger.Debug("Новая серия, сброс состояния",
			zap.String("from", s.series.Key()),
			zap.String("to", series.Key()))
		s.state = s.initialState()
	}
	s.series = series
	s.ma = nil
	if series != nil {
		s.ma = s.analyzer.MovingAverage(series.Candles)
	}
	s.recompute()
}

// Series текущая серия, может быть nil
func (s *Session) Series() *models.CandleSeries {
	return s.series
}

// Resize меняет размер поверхности
func (s *Session) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.recompute()
}

// SetProfileOptions меняет настройки профилей
func (s *Session) SetProfileOptions(options ProfileOptions) {
	s.options = options
	s.recompute()
}

// ProfileOptions текущие настройки профилей
func (s *Session) ProfileOptions() ProfileOptions {
	return s.options
}

// State текущее состояние взаимодействия
func (s *Session) State() interaction.State {
	return s.state
}

// View последний рассчитанный кадр
func (s *Session) View() View {
	return s.view
}

func (s *Session) PointerDown(ev interaction.PointerEvent) {
	s.apply(s.controller.PointerDown(s.state, ev, s.view.Frame()))
}

func (s *Session) PointerMove(ev interaction.PointerEvent) {
	s.apply(s.controller.PointerMove(s.state, ev, s.view.Frame()))
}

func (s *Session) PointerUp() {
	s.apply(s.controller.PointerUp(s.state))
}

func (s *Session) PointerLeave() {
	s.apply(s.controller.PointerLeave(s.state))
}

func (s *Session) Wheel(deltaY float64) {
	s.apply(s.controller.Wheel(s.state, deltaY, s.total()))
}

// Pan сдвиг на bars баров, положительное значение к более старым
func (s *Session) Pan(bars int) {
	s.apply(s.controller.Pan(s.state, bars, s.view.Window))
}

// Pin закрепляет живое выделение
func (s *Session) Pin() {
	before := len(s.state.FixedRanges)
	s.apply(s.controller.Pin(s.state, s.total()))
	if len(s.state.FixedRanges) > before {
		fr := s.state.FixedRanges[len(s.state.FixedRanges)-1]
		logger.Debug("Диапазон закреплён", zap.String("id", fr.ID), zap.Int("start", fr.Start), zap.Int("end", fr.End))
	}
}

func (s *Session) RemoveFixed(id string) {
	s.apply(s.controller.RemoveFixed(s.state, id))
}

func (s *Session) ClearFixed() {
	s.apply(s.controller.ClearFixed(s.state))
}

func (s *Session) ClearSelection() {
	s.apply(s.controller.ClearSelection(s.state))
}

func (s *Session) ClearCrosshair() {
	s.apply(s.controller.ClearCrosshair(s.state))
}

func (s *Session) apply(next interaction.State) {
	s.state = next
	s.recompute()
}

func (s *Session) total() int {
	if s.series == nil {
		return 0
	}
	return len(s.series.Candles)
}

func (s *Session) recompute() {
	var candles []models.Candle
	if s.series != nil {
		candles = s.series.Candles
	}
	s.view = Recompute(Input{
		Candles:       candles,
		Width:         s.width,
		Height:        s.height,
		State:         s.state,
		Profile:       s.options,
		MovingAverage: s.ma,
	})
}
