package engine

import (
	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/telemetry"
)

// Update advances product by one bar: stop/limit exits against the open
// position (Step A), a liquidation check (Step B), pending-open/limit
// fills (Step C), then repeats A-B-C to a fixpoint within the bar if
// anything in C filled (Step D), matching the synchronized EXIT-then-OPEN
// cycle the teacher's step.go ran once per tick.
func (e *Engine) Update(product string, bar model.Bar) error {
	if err := bar.Validate(); err != nil {
		return err
	}
	slot, err := e.slot(product)
	if err != nil {
		return err
	}
	slot.lastBar = bar
	slot.hasBar = true

	for {
		e.stepExits(slot, bar)
		liquidated := e.stepLiquidation(slot, bar)
		filled := e.stepFills(slot, bar)
		if liquidated {
			// A liquidation wipes the position outright; nothing left to
			// fill against this bar for it, but fresh opens may still land.
		}
		if !filled {
			telemetry.Balance.Set(e.balance)
			return nil
		}
	}
}

// stepExits resolves stop-profit/stop-loss delegates against the open
// position: armed *Limit triggers convert in place to a resting limit for
// the next bar (never firing on the bar that armed them); armed market
// triggers fill immediately, closing the whole residual position (a zero
// Quantity on a stop delegate means "close everything resting").
func (e *Engine) stepExits(slot *productSlot, bar model.Bar) {
	if slot.open == nil {
		return
	}
	for _, entry := range slot.pending {
		for _, leg := range []**Delegate{&entry.stopProfit, &entry.stopLoss} {
			d := *leg
			if d == nil {
				continue
			}
			if d.Price.IsLimit() {
				if d.Price.Armed(bar) {
					d.Price = d.Price.RestingLimit()
				}
				continue
			}
			if d.Price.Armed(bar) {
				e.fillExit(slot, d)
				// A fired stop always closes the full residual position (its
				// Quantity is 0, meaning "whatever remains"); the sibling
				// stop has nothing left to act on and is an OCO cancel.
				entry.stopProfit = nil
				entry.stopLoss = nil
				break
			}
		}
		if entry.empty() {
			delete(slot.pending, entry.id)
		}
		if slot.open == nil {
			break
		}
	}
	if slot.open == nil {
		// The position closed mid-scan; every other entry's stop/reduce legs
		// reference it and have nothing left to act on.
		for id, entry := range slot.pending {
			entry.stopProfit = nil
			entry.stopLoss = nil
			entry.reduce = nil
			if entry.empty() {
				delete(slot.pending, id)
			}
		}
	}
}

// isBuyAction reports whether side's actual market action is a buy: BuyLong
// buys to open a long, SellLong buys to cover a short. The other two sides
// (SellShort, BuySell) sell.
func isBuyAction(side model.Side) bool {
	return side == model.BuyLong || side == model.SellLong
}

// applyDeviation nudges an execution price adversely to the trader by the
// configured slippage rate (spec §4.1: "applied adversely to fills"): a buy
// action pays more, a sell action receives less. Zero deviation is a no-op.
func (e *Engine) applyDeviation(side model.Side, price float64) float64 {
	d := e.cfg.Deviation
	if d == 0 {
		return price
	}
	if isBuyAction(side) {
		return price * (1 + d)
	}
	return price * (1 - d)
}

func (e *Engine) fillExit(slot *productSlot, d *Delegate) {
	qty := d.Quantity
	if qty <= 0 {
		qty = slot.open.Quantity
	}
	fillPrice := e.applyDeviation(d.Side, d.Price.ExecutionPrice())
	side := d.Side
	delta, fillProfit, closed := slot.open.reduce(e.cfg, fillPrice, qty, slot.lastBar.TimeMillis)
	e.balance += delta
	if closed {
		slot.open.finalize()
		e.history = append(e.history, *slot.open)
		slot.open = nil
	}
	telemetry.RecordFill(slot.product, side.String(), fillProfit, true)
}

// stepLiquidation closes the open position outright if the bar breaches
// its liquidation price, forfeiting the posted margin (no close-fee credit,
// no favorable fill — the position is marked closed at the liquidation
// price with zero residual).
func (e *Engine) stepLiquidation(slot *productSlot, bar model.Bar) bool {
	pos := slot.open
	if pos == nil || pos.LiquidationPrice <= 0 {
		return false
	}
	breached := false
	if pos.Side == model.BuyLong {
		breached = bar.Low <= pos.LiquidationPrice
	} else {
		breached = bar.High >= pos.LiquidationPrice
	}
	if !breached {
		return false
	}
	pos.Log = append(pos.Log, Record{
		Side: sideForClose(pos.Side), Price: pos.LiquidationPrice, Quantity: pos.Quantity,
		TimeMillis: bar.TimeMillis,
	})
	pos.finalize()
	e.history = append(e.history, *pos)
	slot.open = nil
	telemetry.RecordLiquidation(slot.product)
	// Posted margin for a liquidated position is forfeit; it never returns
	// to balance.
	for id, entry := range slot.pending {
		entry.stopProfit = nil
		entry.stopLoss = nil
		entry.reduce = nil
		if entry.empty() {
			delete(slot.pending, id)
		}
	}
	return true
}

// stepFills resolves pending open/reduce legs against the bar: armed
// *Limit triggers convert to a resting limit for the next bar; armed
// market triggers fill now. Reports whether anything filled, so Update can
// repeat the cycle to a fixpoint.
func (e *Engine) stepFills(slot *productSlot, bar model.Bar) bool {
	filled := false
	for id, entry := range slot.pending {
		// Reduce before open: on a hedging-collapse entry the reduce leg
		// must fully close the old position first, so the open leg (which
		// has no same/opposite-direction check of its own) always creates a
		// fresh position against an empty slot.open instead of averaging
		// into the position it was meant to replace (spec §4.4 Step C).
		for _, leg := range []**Delegate{&entry.reduce, &entry.open} {
			d := *leg
			if d == nil {
				continue
			}
			if d.Price.IsLimit() {
				if d.Price.Armed(bar) {
					d.Price = d.Price.RestingLimit()
				}
				continue
			}
			if !d.Price.Armed(bar) {
				continue
			}
			e.fillLeg(slot, entry, leg, d)
			filled = true
		}
		if entry.empty() {
			delete(slot.pending, id)
		}
	}
	return filled
}

func (e *Engine) fillLeg(slot *productSlot, entry *pendingEntry, leg **Delegate, d *Delegate) {
	price := e.applyDeviation(d.Side, d.Price.ExecutionPrice())
	if d.Side.IsOpen() {
		// d.Fee was already reserved out of balance at admission (spec
		// §4.2.1.f); a fill just realizes it into the position's ledger.
		fee := d.Fee
		if slot.open == nil {
			slot.open = newPosition(e.cfg, slot.product, d.Side, price, d.Quantity, d.Margin+d.AppendMargin, d.AppendMargin, fee, slot.lastBar.TimeMillis)
			// Any stop legs on this entry were sized against the not-yet-open
			// position; attach them now that it exists.
			e.rebindStops(entry, slot)
		} else {
			slot.open.addSameDirection(e.cfg, price, d.Quantity, d.Margin+d.AppendMargin, d.AppendMargin, fee, slot.lastBar.TimeMillis)
		}
		telemetry.RecordFill(slot.product, d.Side.String(), 0, false)
	} else if slot.open != nil {
		delta, fillProfit, closed := slot.open.reduce(e.cfg, price, d.Quantity, slot.lastBar.TimeMillis)
		e.balance += delta
		if closed {
			slot.open.finalize()
			e.history = append(e.history, *slot.open)
			slot.open = nil
		}
		telemetry.RecordFill(slot.product, d.Side.String(), fillProfit, true)
	}
	*leg = nil
}

// rebindStops is a no-op placeholder: stop delegates on the same entry as
// a freshly filled open leg already reference the position implicitly via
// slot.open, resolved lazily at fire time in stepExits.
func (e *Engine) rebindStops(entry *pendingEntry, slot *productSlot) {}
