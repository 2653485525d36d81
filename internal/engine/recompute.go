package engine

import (
	"math"

	"github.com/skalibog/vpchart/internal/chart"
	"github.com/skalibog/vpchart/internal/interaction"
	"github.com/skalibog/vpchart/internal/profile"
	"github.com/skalibog/vpchart/pkg/models"
)

// RangeKind происхождение профиля диапазона
type RangeKind string

const (
	RangeSelection RangeKind = "selection"
	RangeFixed     RangeKind = "fixed"
)

// ProfileOptions настройки расчёта профилей
type ProfileOptions struct {
	Visible      bool
	StepMode     profile.StepMode
	Width        int
	RangeEnabled bool
	Auto         profile.AutoToggles
}

// Input всё, от чего зависит кадр
type Input struct {
	Candles []models.Candle
	Width   int
	Height  int
	State   interaction.State
	Profile ProfileOptions
	// MovingAverage значения индикатора по всей серии, может быть nil
	MovingAverage []float64
}

// BoxedProfile профиль диапазона вместе с его прямоугольником
type BoxedProfile struct {
	Kind    RangeKind
	ID      string
	Range   profile.IndexRange
	Box     chart.Box
	Profile *profile.Profile
}

// View результат пересчёта: всё, что нужно для отрисовки кадра
type View struct {
	Window        chart.Window
	Stats         chart.PriceStats
	Geometry      *chart.Geometry
	MainProfile   *profile.Profile
	RangeProfile  *BoxedProfile
	AutoProfiles  []BoxedProfile
	FixedProfiles []BoxedProfile
	MovingAverage []float64
	Crosshair     interaction.Crosshair
	// Hovered глобальный индекс свечи под перекрестием или -1
	Hovered int
}

// Empty нечего рисовать
func (v View) Empty() bool {
	return v.Geometry == nil || v.Window.Empty()
}

// Frame геометрия кадра для контроллера взаимодействия
func (v View) Frame() interaction.Frame {
	return interaction.Frame{Geometry: v.Geometry, Window: v.Window}
}

// HoveredCandle свеча под перекрестием
func (v View) HoveredCandle() (models.Candle, bool) {
	if v.Hovered < v.Window.Start || v.Hovered >= v.Window.End {
		return models.Candle{}, false
	}
	return v.Window.Candles[v.Hovered-v.Window.Start], true
}

// Recompute полный конвейер окно → статистика → геометрия → профили.
// Чистая функция: одинаковый вход даёт одинаковый результат.
func Recompute(in Input) View {
	view := View{Hovered: -1, Crosshair: in.State.Crosshair}

	view.Window = chart.ComputeWindow(in.Candles, in.State.Viewport.BarsPerScreen, in.State.Viewport.RightOffset)
	if view.Window.Empty() {
		return view
	}

	view.Stats = chart.ComputeStats(view.Window.Candles)
	view.Geometry = chart.BuildGeometry(chart.GeometryInput{
		Width:        in.Width,
		Height:       in.Height,
		VisibleCount: view.Window.Len(),
		MinPrice:     view.Stats.MinPrice,
		MaxPrice:     view.Stats.MaxPrice,
		MaxVolume:    view.Stats.MaxVolume,
		ProfileWidth: in.Profile.Width,
	})
	if view.Geometry == nil {
		return view
	}

	if in.Profile.Visible {
		bins := in.Profile.StepMode.MainBins(view.Window.Len())
		view.MainProfile = profile.BuildMain(view.Window.Candles, view.Stats.MinPrice, view.Stats.MaxPrice, bins)
	}

	visible := profile.IndexRange{Start: view.Window.Start, End: view.Window.End - 1}
	for _, ar := range profile.AutoRanges(in.Candles, in.Profile.Auto, visible) {
		if bp, ok := boxedProfile(in.Candles, ar.Range, view, false); ok {
			bp.Kind = RangeKind(ar.Kind)
			bp.ID = "auto-" + string(ar.Kind)
			view.AutoProfiles = append(view.AutoProfiles, bp)
		}
	}

	for _, fr := range in.State.FixedRanges {
		if bp, ok := boxedProfile(in.Candles, fr.Range(), view, false); ok {
			bp.Kind = RangeFixed
			bp.ID = fr.ID
			view.FixedProfiles = append(view.FixedProfiles, bp)
		}
	}

	if in.Profile.RangeEnabled && in.State.Selection != nil {
		if bp, ok := boxedProfile(in.Candles, in.State.Selection.Range(), view, true); ok {
			bp.Kind = RangeSelection
			view.RangeProfile = &bp
		}
	}

	if len(in.MovingAverage) == len(in.Candles) {
		view.MovingAverage = in.MovingAverage[view.Window.Start:view.Window.End]
	}

	if in.State.Crosshair.Visible {
		view.Hovered = view.Geometry.PickGlobalIndex(in.State.Crosshair.X, view.Window.Start, view.Window.Total)
	}
	return view
}

// boxedProfile профиль диапазона по всем его свечам и прямоугольник видимой части.
// Диапазоны вне экрана пропускаются. allowSingle разрешает диапазон из одной свечи
// (живое выделение в начале перетаскивания).
func boxedProfile(candles []models.Candle, r profile.IndexRange, view View, allowSingle bool) (BoxedProfile, bool) {
	r = r.Normalize(len(candles))
	if r.Span() < 0 || (!allowSingle && r.Span() < 1) {
		return BoxedProfile{}, false
	}

	box, ok := view.Geometry.RangeBox(r.Start, r.End, view.Window)
	if !ok {
		return BoxedProfile{}, false
	}

	slice := candles[r.Start : r.End+1]
	bins := profile.RangeBins(len(slice), view.Geometry.Layout.PriceChartHeight)
	p := profile.BuildRange(slice, math.NaN(), math.NaN(), bins)
	if p == nil {
		return BoxedProfile{}, false
	}
	return BoxedProfile{Range: r, Box: box, Profile: p}, true
}
