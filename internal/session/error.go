package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition means the operation is not legal in the session's
	// current state. The state is left untouched.
	ErrInvalidTransition = errors.New("operation not allowed in current session state")

	// ErrEmptyCart blocks summary and submission of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrUnknownProduct means the EAN is not in the catalog.
	ErrUnknownProduct = errors.New("product not found in catalog")

	// ErrInvalidQuantity covers zero/negative amounts and a mass given for a
	// unit-priced product.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientStock means the live quote does not cover the requested
	// amount. The cart keeps its previous content.
	ErrInsufficientStock = errors.New("insufficient stock for requested amount")

	// ErrStalePriceOrStock is returned by submission when the pre-submit
	// re-quote finds drifted prices or a stock shortfall. Lines are repriced,
	// the session returns to summary review, and nothing is shipped.
	ErrStalePriceOrStock = errors.New("price or stock changed since quoting")
)

// StaleLine describes one drifted cart line found at submission time.
type StaleLine struct {
	LineID      string  `json:"line_id"`
	ProductName string  `json:"product_name"`
	OldPrice    float64 `json:"old_price"`
	NewPrice    float64 `json:"new_price"`
	Available   float64 `json:"available"`
	ShortStock  bool    `json:"short_stock"`
}

// StaleError carries the drifted lines so the caller can tell the customer
// exactly what changed. Unwraps to ErrStalePriceOrStock.
type StaleError struct {
	Lines []StaleLine
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%v: %d line(s) drifted", ErrStalePriceOrStock, len(e.Lines))
}

func (e *StaleError) Unwrap() error {
	return ErrStalePriceOrStock
}
