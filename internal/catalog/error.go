package catalog

import "errors"

var (
	// -- Catalog source --
	ErrFailedListProducts = errors.New("failed to list catalog products")
	ErrEmptyCatalog       = errors.New("catalog source returned no products")
)
