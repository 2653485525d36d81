package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#111317", color.NRGBA{R: 0x11, G: 0x13, B: 0x17, A: 255}},
		{"#F7D447", color.NRGBA{R: 0xf7, G: 0xd4, B: 0x47, A: 255}},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#3fd78a33", color.NRGBA{R: 0x3f, G: 0xd7, B: 0x8a, A: 0x33}},
		{"rgb(1, 2, 3)", color.NRGBA{R: 1, G: 2, B: 3, A: 255}},
		{"rgba(37, 99, 235, 0.10)", color.NRGBA{R: 37, G: 99, B: 235, A: 26}},
		{" RGBA(236,72,153,0.9) ", color.NRGBA{R: 236, G: 72, B: 153, A: 230}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "red", "#12", "#zzzzzz", "rgba(1,2)", "rgb(300, 0, 0)", "rgba(1,2,3,x)", "#1122334z"} {
		_, err := ParseColor(in)
		assert.Error(t, err, in)
	}
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(color.NRGBA{R: 10, A: 255}, 0.5)
	assert.Equal(t, uint8(128), c.A)
	assert.Equal(t, uint8(0), WithAlpha(c, -1).A)
	assert.Equal(t, uint8(255), WithAlpha(c, 7).A)
}

func TestMustColorPanics(t *testing.T) {
	assert.Panics(t, func() { MustColor("nope") })
}
