package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	assert.Equal(t, []int{2, 0, 3}, topK([]float64{0.3, 0.1, 0.4, 0.3}, 3))
	assert.Equal(t, []int{1, 0}, topK([]float64{0.2, 0.8}, 3))
	assert.Equal(t, []int{0, 1, 2}, topK([]float64{0.25, 0.25, 0.25, 0.25}, 3))
}

func TestDegenerate(t *testing.T) {
	assert.True(t, degenerate([]float64{0, 0, 0}))
	assert.True(t, degenerate(nil))
	assert.True(t, degenerate([]float64{0.5, math.NaN()}))
	assert.False(t, degenerate([]float64{0, 1e-9}))
}

func TestPercentages_OneDecimal(t *testing.T) {
	probs := []float64{0.36754, 1, 0.0004}
	assert.Equal(t, []float64{36.8}, percentages(probs, []int{0}))
	assert.Equal(t, []float64{100.0}, percentages(probs, []int{1}))
	assert.Equal(t, []float64{0.0}, percentages(probs, []int{2}))
}

func TestPercentages_TotalNeverExceedsHundred(t *testing.T) {
	tests := []struct {
		name  string
		probs []float64
		want  []float64
	}{
		{"rounding overshoot trimmed from last", []float64{0.3345, 0.3345, 0.331}, []float64{33.5, 33.5, 33.0}},
		{"exact split untouched", []float64{0.5, 0.3, 0.2}, []float64{50.0, 30.0, 20.0}},
		{"partial mass untouched", []float64{0.30754, 0.2, 0.1, 0.39246}, []float64{30.8, 20.0, 10.0}},
		{"single certain class", []float64{1, 0, 0}, []float64{100.0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentages(tt.probs, []int{0, 1, 2})
			assert.Equal(t, tt.want, got)

			total := 0.0
			for _, p := range got {
				total += p
			}
			assert.LessOrEqual(t, math.Round(total*10), 1000.0)
		})
	}
}
