package policy

import "errors"

var (
	// ErrPixNotAllowedPrepaid: the cart holds at least one weighed item, so
	// the exact total is unknown and PIX cannot be charged up front.
	// Recoverable: offer cash/card, or PIX settled at delivery.
	ErrPixNotAllowedPrepaid = errors.New("pix prepayment not allowed for variable-weight cart")

	// ErrMethodNotAllowed: no policy rule admits the method for this cart.
	ErrMethodNotAllowed = errors.New("payment method not allowed")

	ErrInvalidRules = errors.New("invalid payment policy rules")
)
