package stratctx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesReverseIndex(t *testing.T) {
	// oldest-first: 10, 20, 30, 40, current = index 3 (value 40)
	s := newSeries([]float64{10, 20, 30, 40}, 3)

	assert.Equal(t, 40.0, s.Now())
	assert.Equal(t, 40.0, s.At(0))
	assert.Equal(t, 30.0, s.At(1))
	assert.Equal(t, 10.0, s.At(3))
	assert.True(t, math.IsNaN(s.At(4)))
	assert.Equal(t, 4, s.Len())
}

func TestSeriesSliceOutOfRangeIsEmpty(t *testing.T) {
	s := newSeries([]float64{100, 200}, 1)
	assert.Empty(t, s.Slice(4))
}

func TestSeriesSliceReturnsAvailableWindow(t *testing.T) {
	s := newSeries([]float64{100, 200, 300}, 2)
	window := s.Slice(2)
	assert.Equal(t, []float64{200, 300}, window)

	assert.Equal(t, []float64{100, 200, 300}, s.Slice(3))
}
