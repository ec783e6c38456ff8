package engine

import "github.com/chidi150c/swapbacktest/internal/model"

// Config carries the engine-wide trading knobs, generalized from the
// teacher's env-driven Config (chidi150c-coinbase/config.go) to the fuller
// set the matching engine's admission pipeline needs.
type Config struct {
	// InitialMargin is the engine's starting balance.
	InitialMargin float64
	// Lever is the integer leverage applied to every product, >= 1.
	Lever int
	// OpenFee and CloseFee are rates applied to notional on entry/exit fills.
	OpenFee  float64
	CloseFee float64
	// Deviation is a slippage rate applied adversely to fills; may be zero.
	Deviation float64
	// Maintenance is the maintenance-margin rate used by the liquidation formula.
	Maintenance float64

	// Defaults used to resolve model.Unit{Kind: UnitIgnore} fields.
	DefaultQuantity  model.Unit
	DefaultMargin    model.Unit
	DefaultMaxMargin model.Unit
}

// imr is the initial margin rate, 1/lever.
func (c Config) imr() float64 {
	if c.Lever <= 0 {
		return 0
	}
	return 1.0 / float64(c.Lever)
}
