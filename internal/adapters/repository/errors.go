package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound       = errors.New("membership level not found")
	ErrInvalidCatalog = errors.New("invalid membership catalog")
	ErrLoadFixture    = errors.New("load fixture failed")
)
