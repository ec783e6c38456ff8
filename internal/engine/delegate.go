package engine

import "github.com/chidi150c/swapbacktest/internal/model"

// Delegate is one pending order leg: a side, a trigger+execution price, a
// size, and the margin posted to cover it (AppendMargin is the cushion
// posted beyond the minimum quantity/lever requirement).
type Delegate struct {
	Side         model.Side
	Price        model.Price
	Quantity     float64
	Margin       float64
	AppendMargin float64
	// Fee is the open-fee reserved against balance at admission time for an
	// opening leg (spec §4.2.1.f: balance >= margin + fee_open). Zero for
	// reduce/stop legs, which settle their close fee out of the position's
	// released margin at fill time instead.
	Fee float64
}

// DelegateKind tags the composite-order projection returned by Engine.Delegate.
type DelegateKind int

const (
	KindSingle DelegateKind = iota
	KindOpenProfit
	KindOpenLoss
	KindOpenProfitLoss
	KindProfitLoss
	KindHedging
	KindHedgingProfit
	KindHedgingLoss
	KindHedgingProfitLoss
)

func (k DelegateKind) String() string {
	switch k {
	case KindSingle:
		return "Single"
	case KindOpenProfit:
		return "OpenProfit"
	case KindOpenLoss:
		return "OpenLoss"
	case KindOpenProfitLoss:
		return "OpenProfitLoss"
	case KindProfitLoss:
		return "ProfitLoss"
	case KindHedging:
		return "Hedging"
	case KindHedgingProfit:
		return "HedgingProfit"
	case KindHedgingLoss:
		return "HedgingLoss"
	case KindHedgingProfitLoss:
		return "HedgingProfitLoss"
	default:
		return "Unknown"
	}
}

// DelegateState is the read-only sum-type projection of a pending composite
// order, computed from whichever of its four legs are populated (per spec
// §9 Design Notes: the normalized struct is the source of truth, this is a
// view for inspection only).
type DelegateState struct {
	Kind       DelegateKind
	Open       *Delegate
	Reduce     *Delegate
	StopProfit *Delegate
	StopLoss   *Delegate
}

// pendingEntry is the engine's normalized, mutable representation of one
// composite order: at most one open leg, one reduce leg (a close order's own
// leg, or the reduce synthesized by a hedging collapse), and one
// stop-profit/stop-loss pair.
type pendingEntry struct {
	id         uint64
	product    string
	open       *Delegate
	reduce     *Delegate
	stopProfit *Delegate
	stopLoss   *Delegate
}

// empty reports whether every leg has been consumed, i.e. this entry should
// be removed from the pending map.
func (e *pendingEntry) empty() bool {
	return e.open == nil && e.reduce == nil && e.stopProfit == nil && e.stopLoss == nil
}

// state projects the normalized entry into the public sum-type view.
func (e *pendingEntry) state() DelegateState {
	s := DelegateState{Open: e.open, Reduce: e.reduce, StopProfit: e.stopProfit, StopLoss: e.stopLoss}
	switch {
	case e.reduce != nil:
		switch {
		case e.stopProfit != nil && e.stopLoss != nil:
			s.Kind = KindHedgingProfitLoss
		case e.stopProfit != nil:
			s.Kind = KindHedgingProfit
		case e.stopLoss != nil:
			s.Kind = KindHedgingLoss
		default:
			s.Kind = KindHedging
		}
	case e.open != nil:
		switch {
		case e.stopProfit != nil && e.stopLoss != nil:
			s.Kind = KindOpenProfitLoss
		case e.stopProfit != nil:
			s.Kind = KindOpenProfit
		case e.stopLoss != nil:
			s.Kind = KindOpenLoss
		default:
			s.Kind = KindSingle
		}
	default:
		s.Kind = KindProfitLoss
	}
	return s
}
