package interaction

import (
	"github.com/skalibog/vpchart/internal/chart"
	"github.com/skalibog/vpchart/internal/profile"
)

// Mode состояние автомата взаимодействия
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModePanning       Mode = "panning"
	ModeSelecting     Mode = "selecting"
	ModeCrosshairDrag Mode = "crosshair_drag"
)

// Viewport масштаб и прокрутка
type Viewport struct {
	BarsPerScreen int `json:"barsPerScreen"`
	RightOffset   int `json:"rightOffset"`
}

// Selection живое выделение; концы не упорядочены
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Range выделение как упорядоченный диапазон индексов
func (s Selection) Range() profile.IndexRange {
	return profile.IndexRange{Start: min(s.Start, s.End), End: max(s.Start, s.End)}
}

// FixedRange закреплённая копия выделения
type FixedRange struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Range диапазон индексов закреплённого выделения
func (f FixedRange) Range() profile.IndexRange {
	return profile.IndexRange{Start: f.Start, End: f.End}
}

// Crosshair перекрестие курсора
type Crosshair struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// State полное состояние взаимодействия. Меняется только функциями Controller,
// каждая из которых возвращает новое значение.
type State struct {
	Mode        Mode         `json:"mode"`
	Viewport    Viewport     `json:"viewport"`
	Selection   *Selection   `json:"selection,omitempty"`
	FixedRanges []FixedRange `json:"fixedRanges,omitempty"`
	Crosshair   Crosshair    `json:"crosshair"`

	DragStartX      float64 `json:"dragStartX,omitempty"`
	DragStartOffset int     `json:"dragStartOffset,omitempty"`
}

// DefaultState исходное состояние для новой серии
func DefaultState() State {
	return State{
		Mode:     ModeIdle,
		Viewport: Viewport{BarsPerScreen: chart.DefaultBarsPerScreen},
	}
}

// clone копирует State так, чтобы изменения не затрагивали исходное значение
func (s State) clone() State {
	if s.Selection != nil {
		sel := *s.Selection
		s.Selection = &sel
	}
	if s.FixedRanges != nil {
		s.FixedRanges = append([]FixedRange(nil), s.FixedRanges...)
	}
	return s
}
