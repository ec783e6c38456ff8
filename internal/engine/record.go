package engine

import "github.com/chidi150c/swapbacktest/internal/model"

// Record is one realized trade event — an opening fill or a reducing fill —
// appended to the owning position's log.
type Record struct {
	Side        model.Side
	Price       float64
	Quantity    float64
	Margin      float64
	Fee         float64
	Profit      float64
	ProfitRatio float64
	TimeMillis  int64
}
