package oracle

import "time"

// PriceQuote is the live answer for one SKU. It is ephemeral: fetched fresh
// per customer turn and never cached, because price and stock drift between
// messages.
type PriceQuote struct {
	EAN       string    `json:"ean"`
	UnitPrice float64   `json:"preco"`
	Available float64   `json:"estoque"`
	FetchedAt time.Time `json:"-"`
}

// Covers reports whether the quoted stock covers the requested amount
// (units for unit-sold items, kilograms for weighed ones).
func (q PriceQuote) Covers(amount float64) bool {
	return q.Available >= amount
}
