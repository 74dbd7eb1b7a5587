package resolver

import (
	"mercadinho-be/internal/catalog"
	"mercadinho-be/internal/oracle"
)

type Kind string

const (
	// ResolutionUnique: the query maps to exactly one catalog item.
	ResolutionUnique Kind = "UNIQUE"
	// ResolutionAmbiguous: several plausible items; the caller presents the
	// candidates as a choice.
	ResolutionAmbiguous Kind = "AMBIGUOUS"
	// ResolutionNotFound: no catalog match after reformulation. A legitimate
	// outcome, not an error.
	ResolutionNotFound Kind = "NOT_FOUND"
)

// Resolution is the outcome of resolving one free-text query. The resolver
// never fabricates a product: NotFound and Ambiguous are terminal, valid
// answers that require caller disambiguation.
type Resolution struct {
	Kind       Kind              `json:"kind"`
	Product    *catalog.Product  `json:"product,omitempty"`
	Candidates []catalog.Product `json:"candidates,omitempty"`

	// TimedOut marks a batch sub-query that hit its deadline; reported as
	// NotFound-equivalent rather than blocking the whole batch.
	TimedOut bool `json:"timed_out,omitempty"`
}

// BatchResult pairs one input query with its resolution and, for unique hits,
// the live quote fetched alongside. Per-item independence: QuoteErr on one
// entry says nothing about its neighbors.
type BatchResult struct {
	Query      string             `json:"query"`
	Resolution Resolution         `json:"resolution"`
	Quote      *oracle.PriceQuote `json:"quote,omitempty"`
	QuoteErr   error              `json:"-"`
}
