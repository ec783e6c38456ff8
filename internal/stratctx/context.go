package stratctx

import (
	"github.com/chidi150c/swapbacktest/internal/engine"
	"github.com/chidi150c/swapbacktest/internal/model"
)

// Context is handed to a strategy callback once per cadence bar. It is
// read-only except through its order actions, all of which forward to the
// underlying engine with unspecified fields resolved to the engine's
// configured defaults (model.Ignore).
type Context struct {
	Product     string
	MinSize     float64
	MinNotional float64
	Level       model.Level
	TimeMillis  int64

	Open  Series
	High  Series
	Low   Series
	Close Series

	eng *engine.Engine
}

// New builds a Context for product at bars[current], given the full
// oldest-first bar history fetched so far and the index of the current bar
// within it. The per-field series are copied out of bars on every call.
func New(eng *engine.Engine, product string, level model.Level, bars []model.Bar, current int) Context {
	opens := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		opens[i], highs[i], lows[i], closes[i] = b.Open, b.High, b.Low, b.Close
	}
	var timeMillis int64
	if current >= 0 && current < len(bars) {
		timeMillis = bars[current].TimeMillis
	}
	minSize, minNotional, _ := eng.ProductLimits(product)
	return Context{
		Product:     product,
		MinSize:     minSize,
		MinNotional: minNotional,
		Level:       level,
		TimeMillis:  timeMillis,
		Open:        newSeries(opens, current),
		High:        newSeries(highs, current),
		Low:         newSeries(lows, current),
		Close:       newSeries(closes, current),
		eng:         eng,
	}
}

// Balance returns the engine's current balance.
func (c Context) Balance() float64 { return c.eng.Balance() }

// Position returns the open position for this context's product, if any.
func (c Context) Position() (*engine.Position, bool) { return c.eng.Position(c.Product) }

// Delegate returns the pending composite-order view for id, if still
// resting.
func (c Context) Delegate(id uint64) (engine.DelegateState, bool) { return c.eng.Delegate(id) }

// Cancel withdraws a resting delegate (id == 0 cancels every delegate
// across every product).
func (c Context) Cancel(id uint64) bool { return c.eng.Cancel(id) }

// Order places a single order at the default size and margin, with no
// attached stops.
func (c Context) Order(side model.Side, price model.Price) (uint64, error) {
	return c.eng.Order(c.Product, engine.OrderRequest{Side: side, Price: price})
}

// OrderQuantityMargin places an order with an explicit size and margin
// (model.Ignore for either falls back to the engine default).
func (c Context) OrderQuantityMargin(side model.Side, price model.Price, quantity, margin model.Unit) (uint64, error) {
	return c.eng.Order(c.Product, engine.OrderRequest{Side: side, Price: price, Quantity: quantity, Margin: margin})
}

// OrderCondition places an order at the default size and margin, capped by
// an explicit max-margin (a ceiling on the product's aggregate posted margin).
func (c Context) OrderCondition(side model.Side, price model.Price, maxMargin model.Unit) (uint64, error) {
	return c.eng.Order(c.Product, engine.OrderRequest{Side: side, Price: price, MaxMargin: maxMargin})
}

// OrderProfitLoss places an order at the default size and margin with an
// attached stop-profit and/or stop-loss pair. model.Ignore on either
// condition omits that leg.
func (c Context) OrderProfitLoss(side model.Side, price model.Price, stopProfitCond, stopLossCond model.Unit) (uint64, error) {
	return c.eng.Order(c.Product, engine.OrderRequest{
		Side: side, Price: price,
		StopProfitCond: stopProfitCond, StopLossCond: stopLossCond,
	})
}

// OrderProfitLossCondition is the fully-parameterized composite order: an
// explicit size, margin, max-margin, and stop-profit/stop-loss pair with
// their own execution prices.
func (c Context) OrderProfitLossCondition(
	side model.Side, price model.Price, quantity, margin, maxMargin model.Unit,
	stopProfitCond, stopProfitPx, stopLossCond, stopLossPx model.Unit,
) (uint64, error) {
	return c.eng.Order(c.Product, engine.OrderRequest{
		Side: side, Price: price,
		Quantity: quantity, Margin: margin, MaxMargin: maxMargin,
		StopProfitCond: stopProfitCond, StopProfitPx: stopProfitPx,
		StopLossCond: stopLossCond, StopLossPx: stopLossPx,
	})
}

// AttachStops pins a stop-profit/stop-loss pair to the resident position
// without requesting an immediate reduce.
func (c Context) AttachStops(stopProfitCond, stopProfitPx, stopLossCond, stopLossPx model.Unit) (uint64, error) {
	return c.eng.AttachStops(c.Product, stopProfitCond, stopProfitPx, stopLossCond, stopLossPx)
}
