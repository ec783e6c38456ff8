package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out := SMA(closes, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMAEmptyInput(t *testing.T) {
	assert.Empty(t, SMA(nil, 3))
}

func TestRSIRangeBound(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 14, 12, 15, 16, 17}
	out := RSI(closes, 4)
	for i, v := range out {
		if i < 4 {
			assert.Equal(t, 0.0, v)
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestZScoreCentersOnMean(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 20}
	out := ZScore(closes, 4)
	assert.InDelta(t, 0.0, out[3], 1e-6)
	assert.Greater(t, out[4], 0.0)
}
