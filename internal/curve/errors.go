// =============================
// File: internal/curve/errors.go
// =============================
package curve

import "errors"

// Protocol error kinds. Every operation surfaces exactly one of these on a
// precondition failure; callers match with errors.Is.
var (
	ErrUninitialized      = errors.New("global config uninitialized")
	ErrAlreadyInitialized = errors.New("global config already initialized")
	ErrUnauthorised       = errors.New("unauthorised")
	ErrInsufficientFund   = errors.New("insufficient fund")
	ErrUnknownToken       = errors.New("quote token must be the native mint")
	ErrCurveIncomplete    = errors.New("bonding curve incomplete")
	ErrCurveComplete      = errors.New("bonding curve complete")
	ErrMaxBuyLimit        = errors.New("max buy amount exceeded")

	// ErrArithmetic marks reserve math that over- or underflowed. It is a
	// fatal abort of the call, not a recoverable input condition.
	ErrArithmetic = errors.New("reserve arithmetic overflow")
)
