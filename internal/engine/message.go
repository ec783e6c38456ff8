package engine

import "github.com/chidi150c/swapbacktest/internal/model"

// productSlot is the engine's per-product state: sizing floors, the latest
// bar seen, the resting pending delegates keyed by order id, and the open
// position (if any).
type productSlot struct {
	product     string
	minSize     float64
	minNotional float64

	hasBar  bool
	lastBar model.Bar

	pending map[uint64]*pendingEntry
	open    *Position
}

func newProductSlot(product string, minSize, minNotional float64) *productSlot {
	return &productSlot{
		product:     product,
		minSize:     minSize,
		minNotional: minNotional,
		pending:     make(map[uint64]*pendingEntry),
	}
}

// Ready reports whether this product has seen at least one bar, i.e. a
// strategy callback may act on it (spec §4.3 Context.Ready / §9 bootstrap).
func (s *productSlot) Ready() bool { return s.hasBar }
