package profile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepMode(t *testing.T) {
	m, err := ParseStepMode("auto")
	require.NoError(t, err)
	assert.True(t, m.IsAuto())

	m, err = ParseStepMode("")
	require.NoError(t, err)
	assert.True(t, m.IsAuto())

	m, err = ParseStepMode("50")
	require.NoError(t, err)
	assert.Equal(t, FixedBins(50), m)
	assert.Equal(t, "fixed-50", m.String())

	m, err = ParseStepMode("fixed-100")
	require.NoError(t, err)
	assert.Equal(t, FixedBins(100), m)

	_, err = ParseStepMode("tick")
	assert.Error(t, err)
	_, err = ParseStepMode("-4")
	assert.Error(t, err)
}

func TestStepMode_MainBins(t *testing.T) {
	assert.Equal(t, 16, Auto().MainBins(0))
	assert.Equal(t, 16, Auto().MainBins(30))
	assert.Equal(t, 46, Auto().MainBins(140))
	assert.Equal(t, 120, Auto().MainBins(1000))

	assert.Equal(t, 50, FixedBins(50).MainBins(10))
	assert.Equal(t, 8, FixedBins(3).MainBins(10))
	assert.Equal(t, 200, FixedBins(500).MainBins(10))
}

func TestRangeBins(t *testing.T) {
	// base = clamp(count/2, 12, 120), byHeight = clamp(h/8, 10, 120)
	assert.Equal(t, 12, RangeBins(2, math.NaN()))
	assert.Equal(t, 50, RangeBins(100, 0))
	assert.Equal(t, 35, RangeBins(40, 400)) // (20 + 50) / 2
	assert.Equal(t, 120, RangeBins(1000, 2000))
	assert.Equal(t, 11, RangeBins(1, 80)) // (12 + 10) / 2
}
