package catalog

import (
	"bytes"
	"context"
	_ "embed"
)

// DefaultName labels the bundled catalog.
const DefaultName = "entities.csv"

//go:embed data/entities.csv
var defaultCSV []byte

// DefaultCSV returns the raw bundled catalog for download.
func DefaultCSV() []byte {
	out := make([]byte, len(defaultCSV))
	copy(out, defaultCSV)
	return out
}

// Default parses the bundled catalog.
func Default(ctx context.Context) (*Catalog, error) {
	return Parse(ctx, bytes.NewReader(defaultCSV), WithName(DefaultName))
}
