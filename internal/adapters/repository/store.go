// Package repository holds the membership level catalog.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
)

// CatalogLevel is a catalog record: the engine's view of a level plus the
// details only shown to visitors.
type CatalogLevel struct {
	recommend.Level
	Description    string
	PurchaseURL    string
	CharitableGift decimal.Decimal
}

// Store provides read/write access to the membership catalog.
type Store interface {
	// List returns every level, active or not, ordered by id.
	List(ctx context.Context) []CatalogLevel


	// Get returns the level with id, or ErrNotFound.
	Get(ctx context.Context, id int) (CatalogLevel, error)

	// Replace validates levels and swaps them in as the whole catalog.
	// The previous catalog is kept when validation fails.
	Replace(ctx context.Context, levels []CatalogLevel) error

	// Count returns the number of levels and how many of them are active.
	Count(ctx context.Context) (total, active int)
}

// EngineLevels strips catalog records down to what the engine reads.
func EngineLevels(catalog []CatalogLevel) []recommend.Level {
	out := make([]recommend.Level, len(catalog))
	for i, l := range catalog {
		out[i] = l.Level
	}
	return out
}
