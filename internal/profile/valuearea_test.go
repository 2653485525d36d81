package profile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func binsOf(volumes ...float64) []Bin {
	bins := make([]Bin, len(volumes))
	for i, v := range volumes {
		bins[i] = Bin{Price: float64(i), Volume: v}
	}
	return bins
}

func TestValueArea(t *testing.T) {
	tests := []struct {
		name        string
		volumes     []float64
		poc         int
		left, right int
	}{
		{"grows toward larger neighbour", []float64{1, 2, 10, 5, 1}, 2, 2, 3},
		{"tie extends left first", []float64{1, 3, 6, 3, 1}, 2, 1, 3},
		{"single tie step goes left", []float64{1, 1, 8, 1, 1}, 2, 1, 2},
		{"left exhausted", []float64{10, 4, 3, 1}, 0, 0, 1},
		{"right exhausted", []float64{1, 3, 4, 10}, 3, 2, 3},
		{"poc alone covers target", []float64{1, 100, 1}, 1, 1, 1},
		{"all zero", []float64{0, 0, 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := ValueArea(binsOf(tt.volumes...), tt.poc)
			assert.Equal(t, tt.left, left, "left")
			assert.Equal(t, tt.right, right, "right")
		})
	}
}

func TestValueArea_InvalidPOC(t *testing.T) {
	left, right := ValueArea(nil, 0)
	assert.Equal(t, 0, left)
	assert.Equal(t, 0, right)

	left, right = ValueArea(binsOf(1, 2), 5)
	assert.Equal(t, 0, left)
	assert.Equal(t, 0, right)
}

func TestValueArea_CoversTarget(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for n := 0; n < 200; n++ {
		volumes := make([]float64, 8+r.Intn(40))
		poc := 0
		for i := range volumes {
			volumes[i] = r.Float64() * 100
			if volumes[i] > volumes[poc] {
				poc = i
			}
		}
		bins := binsOf(volumes...)
		left, right := ValueArea(bins, poc)

		total, inside := 0.0, 0.0
		for i, v := range volumes {
			total += v
			if i >= left && i <= right {
				inside += v
			}
		}
		assert.LessOrEqual(t, left, poc)
		assert.GreaterOrEqual(t, right, poc)
		assert.GreaterOrEqual(t, inside+1e-9, total*ValueAreaShare)
	}
}
