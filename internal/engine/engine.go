// Package engine implements the matching engine (component C2): order
// admission, pending-delegate bookkeeping, and the per-bar fixpoint update
// cycle that drives fills, stop exits, and liquidations.
package engine

import (
	"fmt"
	"sort"

	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/telemetry"
)

// Engine holds the simulated balance, every registered product's slot, and
// the closed-position history. Callers drive it with Order/Cancel to place
// and withdraw delegates, and Update to advance one bar.
type Engine struct {
	cfg     Config
	balance float64
	nextID  uint64

	order    []string // registered product names, sorted, for deterministic iteration
	products map[string]*productSlot

	history []Position
}

// New builds an Engine seeded with cfg.InitialMargin as starting balance.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		balance:  cfg.InitialMargin,
		products: make(map[string]*productSlot),
	}
}

// InsertProduct registers a product with its minimum order size (coins) and
// minimum notional (quote currency). Calling it twice for the same product
// resets its sizing floors but leaves any open position/pending delegates
// alone.
func (e *Engine) InsertProduct(product string, minSize, minNotional float64) {
	if slot, ok := e.products[product]; ok {
		slot.minSize = minSize
		slot.minNotional = minNotional
		return
	}
	e.products[product] = newProductSlot(product, minSize, minNotional)
	e.order = append(e.order, product)
	sort.Strings(e.order)
}

// Ready stores bar as product's current bar (spec §4.2 item 2: "stores the
// current bar for that product"). Order fails with ErrNotReady until Ready
// or Update has stored a bar for the product; Update stores the bar it is
// given itself. It is a pure bookkeeping mutator: no fills, stops, or
// liquidations are evaluated here.
func (e *Engine) Ready(product string, bar model.Bar) error {
	if err := bar.Validate(); err != nil {
		return err
	}
	slot, err := e.slot(product)
	if err != nil {
		return err
	}
	slot.lastBar = bar
	slot.hasBar = true
	return nil
}

// IsReady reports whether product has received at least one bar.
func (e *Engine) IsReady(product string) bool {
	slot, ok := e.products[product]
	return ok && slot.Ready()
}

// Balance returns the current free balance: cash not tied up as position
// margin or reserved (margin plus open fee) for pending delegates.
func (e *Engine) Balance() float64 { return e.balance }

// ProductLimits returns the minimum order size (coins) and minimum
// notional (quote currency) registered for product.
func (e *Engine) ProductLimits(product string) (minSize, minNotional float64, ok bool) {
	slot, exists := e.products[product]
	if !exists {
		return 0, 0, false
	}
	return slot.minSize, slot.minNotional, true
}

// Delegate returns the composite pending-order view for id, if still
// resting.
func (e *Engine) Delegate(id uint64) (DelegateState, bool) {
	for _, slot := range e.products {
		if entry, ok := slot.pending[id]; ok {
			return entry.state(), true
		}
	}
	return DelegateState{}, false
}

// Position returns the open position for product, if any.
func (e *Engine) Position(product string) (*Position, bool) {
	slot, ok := e.products[product]
	if !ok || slot.open == nil {
		return nil, false
	}
	return slot.open, true
}

// History returns every closed position, oldest first.
func (e *Engine) History() []Position {
	out := make([]Position, len(e.history))
	copy(out, e.history)
	return out
}

// Cancel withdraws a pending delegate, refunding its reserved margin to
// balance. id == 0 cancels every resting delegate across every product
// (spec §4.2.2). Returns whether anything was found and cancelled.
func (e *Engine) Cancel(id uint64) bool {
	if id == 0 {
		found := false
		for _, product := range e.order {
			slot := e.products[product]
			for pid := range slot.pending {
				e.cancelOne(slot, pid)
				found = true
			}
		}
		return found
	}
	for _, slot := range e.products {
		if _, ok := slot.pending[id]; ok {
			e.cancelOne(slot, id)
			return true
		}
	}
	return false
}

func (e *Engine) cancelOne(slot *productSlot, id uint64) {
	entry, ok := slot.pending[id]
	if !ok {
		return
	}
	for _, d := range []*Delegate{entry.open, entry.reduce, entry.stopProfit, entry.stopLoss} {
		if d != nil {
			e.balance += d.Margin + d.AppendMargin + d.Fee
		}
	}
	delete(slot.pending, id)
	telemetry.DelegatesCancelled.WithLabelValues(slot.product).Inc()
}

func (e *Engine) slot(product string) (*productSlot, error) {
	slot, ok := e.products[product]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}
	return slot, nil
}

func (e *Engine) allocID() uint64 {
	e.nextID++
	return e.nextID
}

func resolveUnit(u, fallback model.Unit) model.Unit {
	if u.IsSet() {
		return u
	}
	return fallback
}
