package render

import (
	"fmt"
	"image/color"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/profile"
)

// RangeStyle заливка прямоугольника диапазона и цвет его профиля
type RangeStyle struct {
	Fill    color.NRGBA
	Profile color.NRGBA
}

// Style цвета и параметры отрисовки
type Style struct {
	Background  color.NRGBA
	Grid        color.NRGBA
	ScaleBG     color.NRGBA
	Text        color.NRGBA
	LabelBG     color.NRGBA
	Bull        color.NRGBA
	Bear        color.NRGBA
	Wick        color.NRGBA
	BullVolume  color.NRGBA
	BearVolume  color.NRGBA
	Crosshair   color.NRGBA
	VABand      color.NRGBA
	MovingAvg   color.NRGBA
	Profile     color.NRGBA
	POC         color.NRGBA
	ShowPOC     bool
	VAOpacity   float64
	Fixed       RangeStyle
	Selection   RangeStyle
	Auto        map[profile.AutoKind]RangeStyle
	FallbackBox RangeStyle
}

// DefaultStyle тёмная палитра графика
func DefaultStyle() Style {
	return Style{
		Background: MustColor("#111317"),
		Grid:       MustColor("#1f2933"),
		ScaleBG:    MustColor("#020617"),
		Text:       MustColor("#d7dee9"),
		LabelBG:    MustColor("#1e1f23"),
		Bull:       MustColor("#3fd78a"),
		Bear:       MustColor("#ff4f5a"),
		Wick:       MustColor("#cfd3dc22"),
		BullVolume: MustColor("#3fd78a33"),
		BearVolume: MustColor("#ff4f5a33"),
		Crosshair:  MustColor("#ffffff25"),
		VABand:     MustColor("#1f2933"),
		MovingAvg:  MustColor("#60a5fa"),
		Profile:    MustColor("#4c566a"),
		POC:        MustColor("#F7D447"),
		ShowPOC:    true,
		VAOpacity:  0.4,
		Fixed: RangeStyle{
			Fill:    MustColor("rgba(37, 99, 235, 0.10)"),
			Profile: MustColor("rgba(59, 130, 246, 0.85)"),
		},
		Selection: RangeStyle{
			Fill:    MustColor("rgba(22, 163, 74, 0.10)"),
			Profile: MustColor("#16a34a"),
		},
		Auto: map[profile.AutoKind]RangeStyle{
			profile.AutoDay: {
				Fill:    MustColor("rgba(236, 72, 153, 0.08)"),
				Profile: MustColor("rgba(236, 72, 153, 0.9)"),
			},
			profile.AutoWeek: {
				Fill:    MustColor("rgba(245, 158, 11, 0.08)"),
				Profile: MustColor("rgba(245, 158, 11, 0.9)"),
			},
			profile.AutoSession: {
				Fill:    MustColor("rgba(34, 197, 94, 0.08)"),
				Profile: MustColor("rgba(34, 197, 94, 0.9)"),
			},
			profile.AutoMonth: {
				Fill:    MustColor("rgba(139, 92, 246, 0.08)"),
				Profile: MustColor("rgba(139, 92, 246, 0.9)"),
			},
			profile.AutoVisible: {
				Fill:    MustColor("rgba(100, 116, 139, 0.08)"),
				Profile: MustColor("rgba(148, 163, 184, 0.9)"),
			},
		},
		FallbackBox: RangeStyle{
			Fill:    MustColor("rgba(255, 255, 255, 0.06)"),
			Profile: MustColor("rgba(255, 255, 255, 0.9)"),
		},
	}
}

// NewStyle палитра по умолчанию с пользовательскими цветами профиля
func NewStyle(cfg config.ProfileConfig) (Style, error) {
	st := DefaultStyle()

	if cfg.Color != "" {
		c, err := ParseColor(cfg.Color)
		if err != nil {
			return Style{}, fmt.Errorf("profile.color: %w", err)
		}
		st.Profile = c
	}
	if cfg.POCColor != "" {
		c, err := ParseColor(cfg.POCColor)
		if err != nil {
			return Style{}, fmt.Errorf("profile.poc_color: %w", err)
		}
		st.POC = c
	}
	st.ShowPOC = cfg.ShowPOC
	st.VAOpacity = clamp01(cfg.VAOpacity)
	return st, nil
}

func (s Style) autoStyle(kind profile.AutoKind) RangeStyle {
	if rs, ok := s.Auto[kind]; ok {
		return rs
	}
	return s.FallbackBox
}
