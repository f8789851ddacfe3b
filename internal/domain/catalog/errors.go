package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrInvalidQuery   = errors.New("invalid catalog query")
	ErrNotFound       = errors.New("catalog entry not found")
)
