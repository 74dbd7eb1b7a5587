package oracle

import "errors"

var (
	// ErrQuoteNotFound means the oracle answered but knows no such SKU.
	// Distinct from an unreachable oracle: the absence is authoritative.
	ErrQuoteNotFound = errors.New("no price quote for product")

	// ErrOracleUnavailable means the price/stock source could not answer
	// after the single retry. Callers report "information unavailable now";
	// the engine never fabricates a price.
	ErrOracleUnavailable = errors.New("pricing oracle unavailable")
)
