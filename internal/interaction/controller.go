package interaction

import (
	"math"

	"github.com/google/uuid"

	"github.com/skalibog/vpchart/internal/chart"
)

const (
	// ZoomStep изменение масштаба за одно деление колеса
	ZoomStep = 5
	// DefaultMaxBars верхняя граница масштаба
	DefaultMaxBars = 1000
)

// Button кнопка указателя
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// PointerEvent событие указателя в координатах поверхности
type PointerEvent struct {
	Button Button
	X      float64
	Y      float64
}

// Frame производная геометрия на момент события
type Frame struct {
	Geometry *chart.Geometry
	Window   chart.Window
}

func (f Frame) ready() bool {
	return f.Geometry != nil && !f.Window.Empty()
}

// Options настройки контроллера
type Options struct {
	// HoverCrosshair показывать перекрестие при простом наведении
	HoverCrosshair bool
	// MaxBars верхняя граница числа баров на экране
	MaxBars int
	// NewID генератор идентификаторов закреплённых диапазонов
	NewID func() string
}

// Controller переходы автомата Idle/Panning/Selecting/CrosshairDrag
type Controller struct {
	opts Options
}

// NewController создаёт контроллер
func NewController(opts Options) *Controller {
	if opts.MaxBars <= 0 {
		opts.MaxBars = DefaultMaxBars
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Controller{opts: opts}
}

// PreventsContextMenu нажатие этой кнопки не должно открывать контекстное меню
func PreventsContextMenu(b Button) bool {
	return b == ButtonSecondary
}

// PointerDown начало перетаскивания
func (c *Controller) PointerDown(s State, ev PointerEvent, f Frame) State {
	if !f.ready() {
		return s
	}
	s = s.clone()

	switch ev.Button {
	case ButtonPrimary:
		idx := f.Geometry.PickGlobalIndex(ev.X, f.Window.Start, f.Window.Total)
		s.Mode = ModeSelecting
		s.Selection = &Selection{Start: idx, End: idx}
	case ButtonSecondary:
		s.Mode = ModePanning
		s.DragStartX = ev.X
		s.DragStartOffset = f.Window.Offset
	case ButtonMiddle:
		s.Mode = ModeCrosshairDrag
		s.Crosshair = Crosshair{Visible: true, X: ev.X, Y: ev.Y}
	}
	return s
}

// PointerMove перемещение указателя
func (c *Controller) PointerMove(s State, ev PointerEvent, f Frame) State {
	s = s.clone()

	switch s.Mode {
	case ModePanning:
		if !f.ready() || f.Geometry.Layout.CandleSpacing <= 0 {
			return s
		}
		// перетаскивание вправо открывает более старые бары
		barsMoved := int(math.Round((ev.X - s.DragStartX) / f.Geometry.Layout.CandleSpacing))
		s.Viewport.RightOffset = clampInt(s.DragStartOffset+barsMoved, 0, f.Window.MaxOffset)
	case ModeSelecting:
		if !f.ready() || s.Selection == nil {
			return s
		}
		s.Selection.End = f.Geometry.PickGlobalIndex(ev.X, f.Window.Start, f.Window.Total)
	case ModeCrosshairDrag:
		s.Crosshair = Crosshair{Visible: true, X: ev.X, Y: ev.Y}
	default:
		if c.opts.HoverCrosshair {
			s.Crosshair = Crosshair{Visible: true, X: ev.X, Y: ev.Y}
		}
	}
	return s
}

// PointerUp завершение перетаскивания. Выделение короче одного бара сбрасывается.
func (c *Controller) PointerUp(s State) State {
	s = s.clone()

	switch s.Mode {
	case ModeSelecting:
		if s.Selection != nil && s.Selection.Range().Span() < 1 {
			s.Selection = nil
		}
	case ModeCrosshairDrag:
		if !c.opts.HoverCrosshair {
			s.Crosshair = Crosshair{}
		}
	}

	s.Mode = ModeIdle
	s.DragStartX = 0
	s.DragStartOffset = 0
	return s
}

// PointerLeave указатель покинул поверхность: перетаскивание завершается, перекрестие скрывается
func (c *Controller) PointerLeave(s State) State {
	s = c.PointerUp(s)
	s.Crosshair = Crosshair{}
	return s
}

// Wheel масштабирование колесом: deltaY < 0 уменьшает число баров.
// Правый край остаётся на месте, смещение прижимается к новому maxOffset.
func (c *Controller) Wheel(s State, deltaY float64, total int) State {
	switch {
	case deltaY < 0:
		return c.Zoom(s, -ZoomStep, total)
	case deltaY > 0:
		return c.Zoom(s, ZoomStep, total)
	}
	return s
}

// Zoom меняет число баров на экране на delta
func (c *Controller) Zoom(s State, delta, total int) State {
	s = s.clone()

	upper := c.opts.MaxBars
	if total > 0 {
		upper = max(min(total, c.opts.MaxBars), chart.MinBars)
	}
	s.Viewport.BarsPerScreen = clampInt(s.Viewport.BarsPerScreen+delta, chart.MinBars, upper)

	bars := min(s.Viewport.BarsPerScreen, max(total, 0))
	s.Viewport.RightOffset = clampInt(s.Viewport.RightOffset, 0, chart.MaxOffset(total, bars))
	return s
}

// Pan сдвигает окно на bars баров (положительное значение к более старым)
func (c *Controller) Pan(s State, bars int, w chart.Window) State {
	s = s.clone()
	s.Viewport.RightOffset = clampInt(w.Offset+bars, 0, w.MaxOffset)
	return s
}

// Pin закрепляет живое выделение, если оно не короче одного бара
func (c *Controller) Pin(s State, total int) State {
	if s.Selection == nil || total <= 0 {
		return s
	}
	r := s.Selection.Range().Normalize(total)
	if r.Span() < 1 {
		return s
	}

	s = s.clone()
	s.FixedRanges = append(s.FixedRanges, FixedRange{
		ID:    c.opts.NewID(),
		Start: r.Start,
		End:   r.End,
	})
	return s
}

// RemoveFixed удаляет закреплённый диапазон по идентификатору
func (c *Controller) RemoveFixed(s State, id string) State {
	s = s.clone()
	kept := s.FixedRanges[:0]
	for _, fr := range s.FixedRanges {
		if fr.ID != id {
			kept = append(kept, fr)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.FixedRanges = kept
	return s
}

// ClearFixed удаляет все закреплённые диапазоны
func (c *Controller) ClearFixed(s State) State {
	s = s.clone()
	s.FixedRanges = nil
	return s
}

// ClearSelection сбрасывает живое выделение
func (c *Controller) ClearSelection(s State) State {
	s = s.clone()
	s.Selection = nil
	return s
}

// ClearCrosshair скрывает перекрестие
func (c *Controller) ClearCrosshair(s State) State {
	s = s.clone()
	s.Crosshair = Crosshair{}
	return s
}

// Reset состояние для новой серии свечей
func (c *Controller) Reset() State {
	return DefaultState()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
