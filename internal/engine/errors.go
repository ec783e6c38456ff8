package engine

import "errors"

// Sentinel errors surfaced at the engine boundary. Checked with errors.Is;
// wrapped with fmt.Errorf("...: %w", ...) for context the way the teacher's
// broker/trader code wraps its own sentinel errors.
var (
	ErrUnknownProduct       = errors.New("engine: unknown product")
	ErrNotReady             = errors.New("engine: product not ready for this bar")
	ErrSizeBelowMinimum     = errors.New("engine: size below minimum")
	ErrMarginBelowNotional  = errors.New("engine: margin below required notional")
	ErrInsufficientBalance  = errors.New("engine: insufficient balance")
	ErrMaxMarginExceeded    = errors.New("engine: max margin exceeded")
	ErrStopDirectionInvalid = errors.New("engine: stop trigger on wrong side of reference price")
	ErrCloseWithoutPosition = errors.New("engine: close order without an open position")
	ErrCloseExceedsPosition = errors.New("engine: close quantity exceeds residual position")
	ErrInvalidUnit          = errors.New("engine: invalid unit value")
)
