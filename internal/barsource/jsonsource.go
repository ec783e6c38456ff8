// Package barsource provides concrete backtester.BarSource implementations.
package barsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/chidi150c/swapbacktest/internal/model"
)

// wireBar is the on-disk JSON shape: {"time": unix_millis, "open", "high",
// "low", "close": float64}.
type wireBar struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// JSONSource is an in-memory BarSource backed by a JSON array of bars,
// keyed by product, loaded once up front from a file or byte slice.
type JSONSource struct {
	byProduct map[string][]model.Bar
}

// NewJSONSource builds an empty source; call Load for each product before
// fetching from it.
func NewJSONSource() *JSONSource {
	return &JSONSource{byProduct: make(map[string][]model.Bar)}
}

// Load reads path's JSON bar array and registers it under product, sorted
// ascending by time.
func (s *JSONSource) Load(product, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("barsource: reading %s: %w", path, err)
	}
	return s.LoadBytes(product, raw)
}

// LoadBytes parses raw as a JSON bar array and registers it under product.
func (s *JSONSource) LoadBytes(product string, raw []byte) error {
	var wire []wireBar
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("barsource: decoding %s: %w", product, err)
	}
	bars := make([]model.Bar, len(wire))
	for i, w := range wire {
		bars[i] = model.Bar{TimeMillis: w.Time, Open: w.Open, High: w.High, Low: w.Low, Close: w.Close}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].TimeMillis < bars[j].TimeMillis })
	s.byProduct[product] = bars
	return nil
}

// Fetch returns up to limit bars for product at level, starting at cursor
// (a bar index, not a timestamp) and moving forward in time. A cursor of 0
// requests from the beginning of the loaded history; level is accepted for
// interface conformance but ignored since a JSONSource holds pre-bucketed
// bars for exactly one level per product.
func (s *JSONSource) Fetch(_ context.Context, product string, _ model.Level, cursor int64, limit int) ([]model.Bar, error) {
	bars, ok := s.byProduct[product]
	if !ok {
		return nil, fmt.Errorf("barsource: unknown product %s", product)
	}
	start := int(cursor)
	if start >= len(bars) {
		return nil, nil
	}
	end := start + limit
	if end > len(bars) {
		end = len(bars)
	}
	out := make([]model.Bar, end-start)
	copy(out, bars[start:end])
	return out, nil
}

// Len reports how many bars are loaded for product.
func (s *JSONSource) Len(product string) int { return len(s.byProduct[product]) }
