package model

// PriceKind tags which trigger/execution variant a Price holds.
type PriceKind int

const (
	// GreaterThanMarket triggers when the bar high reaches at least Trigger,
	// and fills at Trigger.
	GreaterThanMarket PriceKind = iota
	// LessThanMarket triggers when the bar low reaches at most Trigger, and
	// fills at Trigger.
	LessThanMarket
	// GreaterThanLimit triggers at Trigger, then rests as a limit at Limit
	// from the following bar onward.
	GreaterThanLimit
	// LessThanLimit is the symmetric counterpart of GreaterThanLimit.
	LessThanLimit
)

// Price describes both the arming condition and the execution price of a
// pending delegate leg.
type Price struct {
	Kind    PriceKind
	Trigger float64
	Limit   float64 // only meaningful for the *Limit variants
}

// Market builds a market-triggered price: fills at trigger as soon as the
// bar crosses it. up selects whether the arming test is "high >= trigger"
// (true) or "low <= trigger" (false).
func Market(trigger float64, up bool) Price {
	if up {
		return Price{Kind: GreaterThanMarket, Trigger: trigger}
	}
	return Price{Kind: LessThanMarket, Trigger: trigger}
}

// Limit builds a trigger-then-rest price: armed at trigger, then rests at
// limit starting the bar after arming.
func Limit(trigger, limit float64, up bool) Price {
	if up {
		return Price{Kind: GreaterThanLimit, Trigger: trigger, Limit: limit}
	}
	return Price{Kind: LessThanLimit, Trigger: trigger, Limit: limit}
}

// IsUp reports whether this is a "GreaterThan*" (high-side) variant.
func (p Price) IsUp() bool {
	return p.Kind == GreaterThanMarket || p.Kind == GreaterThanLimit
}

// IsLimit reports whether this variant rests as a limit once armed.
func (p Price) IsLimit() bool {
	return p.Kind == GreaterThanLimit || p.Kind == LessThanLimit
}

// Armed reports whether the bar touches the trigger condition. NaN and
// non-positive prices never trigger (treated as non-triggering edge cases,
// per spec §7).
func (p Price) Armed(bar Bar) bool {
	if p.Trigger != p.Trigger || p.Trigger <= 0 { // NaN guard
		return false
	}
	if p.IsUp() {
		return bar.High >= p.Trigger
	}
	return bar.Low <= p.Trigger
}

// RestingLimit converts an armed *Limit price into the resting-limit price
// used on subsequent bars: a plain market-style trigger at Limit, preserving
// the original up/down direction.
func (p Price) RestingLimit() Price {
	return Market(p.Limit, p.IsUp())
}

// ExecutionPrice returns the price at which this delegate fills once armed.
func (p Price) ExecutionPrice() float64 {
	if p.IsLimit() {
		return p.Limit
	}
	return p.Trigger
}
