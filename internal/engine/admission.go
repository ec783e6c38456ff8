package engine

import (
	"fmt"
	"math"

	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/telemetry"
)

// OrderRequest describes one order admission.
//
// Price is the trigger/execution price for the order's own leg (an open
// leg for BuyLong/SellShort, a close leg for BuySell/SellLong) — built with
// model.Market for an immediate-on-touch fill or model.Limit for a
// trigger-then-rest order.
//
// Quantity/Margin/MaxMargin follow model.Unit: Ignore takes the engine's
// configured default. For an opening side, Proportion is relative to the
// engine's initial margin; for a closing side, Proportion is relative to
// the residual position quantity.
//
// StopProfitCond/StopLossCond are the stop triggers (Ignore attaches no
// stop leg); *Px resolves the execution price once triggered — Ignore
// fills at the trigger itself, Quantity is an absolute limit price.
type OrderRequest struct {
	Side  model.Side
	Price model.Price

	Quantity  model.Unit
	Margin    model.Unit
	MaxMargin model.Unit

	StopProfitCond model.Unit
	StopProfitPx   model.Unit
	StopLossCond   model.Unit
	StopLossPx     model.Unit
}

// Order admits req against product and returns the new pending delegate's
// id. Nothing fills here; Update resolves triggers and fills against bar
// data on subsequent calls.
func (e *Engine) Order(product string, req OrderRequest) (uint64, error) {
	slot, err := e.slot(product)
	if err != nil {
		return 0, err
	}
	if !slot.Ready() {
		return 0, fmt.Errorf("%w: %s", ErrNotReady, product)
	}

	if req.Side.IsOpen() {
		return e.admitOpen(slot, req)
	}
	return e.admitClose(slot, req)
}

func (e *Engine) admitOpen(slot *productSlot, req OrderRequest) (uint64, error) {
	price := req.Price.ExecutionPrice()
	if price <= 0 || price != price {
		return 0, fmt.Errorf("%w: non-positive execution price", ErrInvalidUnit)
	}

	quantity, err := e.resolveOpenQuantity(resolveUnit(req.Quantity, e.cfg.DefaultQuantity), price, slot.minSize)
	if err != nil {
		return 0, err
	}
	if quantity < slot.minSize {
		return 0, fmt.Errorf("%w: %.8f < %.8f", ErrSizeBelowMinimum, quantity, slot.minSize)
	}
	notional := quantity * price
	if notional < slot.minNotional {
		return 0, fmt.Errorf("%w: notional %.8f < %.8f", ErrSizeBelowMinimum, notional, slot.minNotional)
	}
	feeOpen := notional * e.cfg.OpenFee

	totalMargin, appendMargin, err := e.resolveMargin(resolveUnit(req.Margin, e.cfg.DefaultMargin), quantity, price)
	if err != nil {
		return 0, err
	}
	if marginCap, ok := e.resolveMaxMargin(req.MaxMargin); ok {
		// spec §4.2.1.f: "aggregate posted margin for this product must not
		// exceed it" — the resident position's margin, every other pending
		// open leg's margin, and this order's own margin, summed.
		aggregate := e.aggregatePostedMargin(slot) + totalMargin
		if aggregate > marginCap {
			return 0, fmt.Errorf("%w: aggregate margin %.8f exceeds cap %.8f", ErrMaxMarginExceeded, aggregate, marginCap)
		}
	}
	if totalMargin+feeOpen > e.balance {
		return 0, fmt.Errorf("%w: need %.8f, have %.8f", ErrInsufficientBalance, totalMargin+feeOpen, e.balance)
	}

	open := &Delegate{Side: req.Side, Price: req.Price, Quantity: quantity, Margin: totalMargin - appendMargin, AppendMargin: appendMargin, Fee: feeOpen}

	var reduce *Delegate
	if slot.open != nil && slot.open.Side != req.Side {
		// Hedging collapse: an opposite-direction open against a resident
		// position becomes a reduce against that position plus a residual
		// open for whatever exceeds it.
		reduceQty := quantity
		if reduceQty > slot.open.Quantity {
			reduceQty = slot.open.Quantity
		}
		reduce = &Delegate{Side: sideForClose(slot.open.Side), Price: req.Price, Quantity: reduceQty}
		open.Quantity -= reduceQty
		if open.Quantity <= 1e-12 {
			open = nil
		} else {
			// Re-derive margin/append/fee proportionally to the residual slice.
			frac := open.Quantity / quantity
			openMargin := (totalMargin - appendMargin) * frac
			openAppend := appendMargin * frac
			open.Margin = openMargin
			open.AppendMargin = openAppend
			open.Fee = feeOpen * frac
		}
	}

	stopProfit, stopLoss, err := e.resolveStops(req, price)
	if err != nil {
		return 0, err
	}

	// Only the residual open leg (if any) actually reserves margin+fee; a
	// reduce leg draws against the position it reduces, not the balance.
	reserved := 0.0
	if open != nil {
		reserved = open.Margin + open.AppendMargin + open.Fee
	}
	e.balance -= reserved
	id := e.allocID()
	slot.pending[id] = &pendingEntry{id: id, product: slot.product, open: open, reduce: reduce, stopProfit: stopProfit, stopLoss: stopLoss}
	telemetry.DelegatesPlaced.WithLabelValues(slot.product, req.Side.String()).Inc()
	return id, nil
}

func (e *Engine) admitClose(slot *productSlot, req OrderRequest) (uint64, error) {
	if slot.open == nil {
		return 0, ErrCloseWithoutPosition
	}
	price := req.Price.ExecutionPrice()
	if price <= 0 || price != price {
		return 0, fmt.Errorf("%w: non-positive execution price", ErrInvalidUnit)
	}

	quantity, err := e.resolveCloseQuantity(resolveUnit(req.Quantity, e.cfg.DefaultQuantity), slot.open.Quantity, slot.minSize)
	if err != nil {
		return 0, err
	}
	if quantity > slot.open.Quantity+1e-12 {
		return 0, fmt.Errorf("%w: %.8f > %.8f", ErrCloseExceedsPosition, quantity, slot.open.Quantity)
	}

	reduce := &Delegate{Side: req.Side, Price: req.Price, Quantity: quantity}

	stopProfit, stopLoss, err := e.resolveStops(req, slot.open.OpenPrice)
	if err != nil {
		return 0, err
	}

	id := e.allocID()
	slot.pending[id] = &pendingEntry{id: id, product: slot.product, reduce: reduce, stopProfit: stopProfit, stopLoss: stopLoss}
	telemetry.DelegatesPlaced.WithLabelValues(slot.product, req.Side.String()).Inc()
	return id, nil
}

func (e *Engine) resolveOpenQuantity(u model.Unit, price, minSize float64) (float64, error) {
	switch u.Kind {
	case model.UnitQuantity:
		if u.Value <= 0 {
			return 0, fmt.Errorf("%w: quantity must be > 0", ErrInvalidUnit)
		}
		return u.Value, nil
	case model.UnitProportion:
		if u.Value <= 0 {
			return 0, fmt.Errorf("%w: proportion must be > 0", ErrInvalidUnit)
		}
		// spec §4.2.1.c: opens resolve a quantity proportion as
		// p * initial_margin / ref, with no leverage factor.
		return u.Value * e.cfg.InitialMargin / price, nil
	default:
		// spec §4.2.1.c: Ignore falls back to the product's min_size for
		// an opening order when no engine-level default is configured either.
		return minSize, nil
	}
}

func (e *Engine) resolveCloseQuantity(u model.Unit, positionQty, minSize float64) (float64, error) {
	switch u.Kind {
	case model.UnitQuantity:
		if u.Value <= 0 {
			return 0, fmt.Errorf("%w: quantity must be > 0", ErrInvalidUnit)
		}
		return u.Value, nil
	case model.UnitProportion:
		if u.Value <= 0 || u.Value > 1 {
			return 0, fmt.Errorf("%w: close proportion must be in (0, 1]", ErrInvalidUnit)
		}
		// spec §4.2.1.c: a proportional close is floored to a min_size
		// multiple so residual dust below the product's step size isn't left
		// dangling as an unfillable remainder.
		return floorToStep(u.Value*positionQty, minSize), nil
	default:
		return positionQty, nil // unset close size defaults to a full close
	}
}

// floorToStep rounds qty down to the nearest multiple of step (spec
// §4.2.1.c's "floored to a min_size multiple"). A non-positive step leaves
// qty unrounded.
func floorToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	steps := math.Floor(qty/step + 1e-9)
	return steps * step
}

func (e *Engine) resolveMargin(u model.Unit, quantity, price float64) (total, appendMargin float64, err error) {
	minMargin := quantity * price * e.cfg.imr()
	switch u.Kind {
	case model.UnitQuantity:
		total = u.Value
	case model.UnitProportion:
		total = u.Value * e.cfg.InitialMargin
	default:
		total = minMargin
	}
	if total < minMargin {
		return 0, 0, fmt.Errorf("%w: margin %.8f below required %.8f", ErrMarginBelowNotional, total, minMargin)
	}
	return total, total - minMargin, nil
}

// aggregatePostedMargin sums every margin (base + append) already posted
// against slot's product: the resident position's, if any, plus every
// still-pending entry's open leg. Excludes the order currently being
// admitted, whose own margin the caller adds in separately.
func (e *Engine) aggregatePostedMargin(slot *productSlot) float64 {
	total := 0.0
	if slot.open != nil {
		// A position's Margin already includes its AppendMargin.
		total += slot.open.Margin
	}
	for _, entry := range slot.pending {
		if entry.open != nil {
			total += entry.open.Margin + entry.open.AppendMargin
		}
	}
	return total
}

func (e *Engine) resolveMaxMargin(u model.Unit) (float64, bool) {
	u = resolveUnit(u, e.cfg.DefaultMaxMargin)
	switch u.Kind {
	case model.UnitQuantity:
		return u.Value, true
	case model.UnitProportion:
		return u.Value * e.cfg.InitialMargin, true
	default:
		return 0, false
	}
}

// AttachStops pins a stop-profit/stop-loss pair to the resident position
// without requesting an immediate reduce, the KindProfitLoss composite
// order (spec §9's "order_profit_loss" action). At least one of
// stopProfitCond/stopLossCond must be set.
func (e *Engine) AttachStops(product string, stopProfitCond, stopProfitPx, stopLossCond, stopLossPx model.Unit) (uint64, error) {
	slot, err := e.slot(product)
	if err != nil {
		return 0, err
	}
	if slot.open == nil {
		return 0, ErrCloseWithoutPosition
	}
	if !stopProfitCond.IsSet() && !stopLossCond.IsSet() {
		return 0, fmt.Errorf("%w: no stop condition set", ErrInvalidUnit)
	}

	up := slot.open.Side == model.BuyLong
	var stopProfit, stopLoss *Delegate
	if stopProfitCond.IsSet() {
		_, px, perr := resolveStopPrice(stopProfitCond, stopProfitPx, slot.open.OpenPrice, up)
		if perr != nil {
			return 0, perr
		}
		stopProfit = &Delegate{Side: sideForClose(slot.open.Side), Price: px}
	}
	if stopLossCond.IsSet() {
		_, px, perr := resolveStopPrice(stopLossCond, stopLossPx, slot.open.OpenPrice, !up)
		if perr != nil {
			return 0, perr
		}
		stopLoss = &Delegate{Side: sideForClose(slot.open.Side), Price: px}
	}

	id := e.allocID()
	slot.pending[id] = &pendingEntry{id: id, product: slot.product, stopProfit: stopProfit, stopLoss: stopLoss}
	telemetry.DelegatesPlaced.WithLabelValues(slot.product, "profit_loss").Inc()
	return id, nil
}

// closeSideForExposure maps any of the four sides to the close side for the
// long/short exposure it acts on: BuyLong/BuySell both close via BuySell,
// SellShort/SellLong both close via SellLong.
func closeSideForExposure(side model.Side) model.Side {
	if side == model.BuyLong || side == model.BuySell {
		return model.BuySell
	}
	return model.SellLong
}

// resolveStops builds the stop-profit/stop-loss delegates attached to an
// order, using refPrice (the intended open price, or the position's open
// price for a close order) as the base for proportional triggers. Stop-profit
// sits above refPrice for long exposure (BuyLong/BuySell) and below it for
// short exposure (SellShort/SellLong); stop-loss is the reverse.
func (e *Engine) resolveStops(req OrderRequest, refPrice float64) (stopProfit, stopLoss *Delegate, err error) {
	up := req.Side.Sign() > 0

	if req.StopProfitCond.IsSet() {
		_, px, perr := resolveStopPrice(req.StopProfitCond, req.StopProfitPx, refPrice, up)
		if perr != nil {
			return nil, nil, perr
		}
		stopProfit = &Delegate{Side: closeSideForExposure(req.Side), Price: px, Quantity: 0}
	}
	if req.StopLossCond.IsSet() {
		_, px, perr := resolveStopPrice(req.StopLossCond, req.StopLossPx, refPrice, !up)
		if perr != nil {
			return nil, nil, perr
		}
		stopLoss = &Delegate{Side: closeSideForExposure(req.Side), Price: px, Quantity: 0}
	}
	return stopProfit, stopLoss, nil
}

func resolveStopPrice(cond, px model.Unit, refPrice float64, up bool) (float64, model.Price, error) {
	var trigger float64
	switch cond.Kind {
	case model.UnitQuantity:
		trigger = cond.Value
		if up && trigger <= refPrice {
			return 0, model.Price{}, fmt.Errorf("%w: trigger %.8f must exceed reference %.8f", ErrStopDirectionInvalid, trigger, refPrice)
		}
		if !up && trigger >= refPrice {
			return 0, model.Price{}, fmt.Errorf("%w: trigger %.8f must be below reference %.8f", ErrStopDirectionInvalid, trigger, refPrice)
		}
	case model.UnitProportion:
		if up {
			trigger = refPrice * (1 + cond.Value)
		} else {
			trigger = refPrice * (1 - cond.Value)
		}
	default:
		return 0, model.Price{}, fmt.Errorf("%w: stop condition must be set", ErrInvalidUnit)
	}
	if !px.IsSet() {
		return trigger, model.Market(trigger, up), nil
	}
	var limit float64
	switch px.Kind {
	case model.UnitQuantity:
		limit = px.Value
	case model.UnitProportion:
		if up {
			limit = trigger * (1 + px.Value)
		} else {
			limit = trigger * (1 - px.Value)
		}
	}
	return trigger, model.Limit(trigger, limit, up), nil
}
