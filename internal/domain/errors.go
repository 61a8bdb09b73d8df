package domain

import "errors"

// Error taxonomy shared by every pricing procedure. Failures wrap one of these
// sentinels so callers can match with errors.Is.
var (
	// ErrInvalidMarketParameters reports non-positive prices, volatility or maturity,
	// a negative rate, or a risk-neutral probability outside (0, 1).
	ErrInvalidMarketParameters = errors.New("invalid market parameters")

	// ErrInvalidGridSize reports too few time steps or paths.
	ErrInvalidGridSize = errors.New("invalid grid size")

	// ErrRegressionFailure reports a degenerate continuation-value fit.
	ErrRegressionFailure = errors.New("regression failure")
)
