// Package stratctx is the strategy-facing context (component C4): a
// read-only, reverse-indexed view over recent bars plus the order actions a
// strategy may take against the matching engine.
package stratctx

import "math"

// Series is a zero-copy, reverse-indexed view over one bar field: index 0
// is the current (most recent) bar, index 1 the one before it, and so on,
// mirroring the suffix-slice view the original replay loop built per bar
// (Source::new(&slice[index..])). Out-of-range indices read as NaN rather
// than panicking, since a strategy may ask for lookback deeper than the
// history fetched so far.
type Series struct {
	// values is oldest-first; current is the index of "now" within values.
	values  []float64
	current int
}

// newSeries builds a Series over values (oldest-first) anchored at
// current, the index of the present bar.
func newSeries(values []float64, current int) Series {
	return Series{values: values, current: current}
}

// At returns the value `back` bars behind the current one (At(0) is now).
// An index outside the available history returns NaN.
func (s Series) At(back int) float64 {
	i := s.current - back
	if i < 0 || i >= len(s.values) {
		return math.NaN()
	}
	return s.values[i]
}

// Now is shorthand for At(0): the current bar's value for this field.
func (s Series) Now() float64 { return s.At(0) }

// Len reports how many bars of history (including the current one) are
// available behind this series.
func (s Series) Len() int { return s.current + 1 }

// Slice returns the last n values, oldest first, for callers that want to
// run their own indicator math over a window. If n reaches further back
// than the history available behind this series, the slice is out of
// range and Slice returns empty — mirroring base.rs's Source::index,
// which answers a Range lookup past the slice's bounds with &[] rather
// than padding it out.
func (s Series) Slice(n int) []float64 {
	if n <= 0 {
		return nil
	}
	start := s.current - n + 1
	if start < 0 || s.current < 0 || s.current >= len(s.values) {
		return []float64{}
	}
	return s.values[start : s.current+1]
}
