package repository

import (
	"fmt"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
)

// Validate applies the catalog constraints: unique ids, non-negative
// entitlements and prices, a gift no larger than the price, and at most one
// active level per entitlement triple.
func Validate(levels []CatalogLevel) error {
	ids := make(map[int]struct{}, len(levels))
	triples := make(map[recommend.Entitlements]int, len(levels))

	for _, l := range levels {
		if _, dup := ids[l.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, l.ID)
		}
		ids[l.ID] = struct{}{}

		switch {
		case l.CardholdersIncluded < 0, l.AdmissionsAllowed < 0, l.TicketAllowance < 0:
			return fmt.Errorf("%w: level %d has negative entitlements", ErrInvalidCatalog, l.ID)
		case l.Price.IsNegative():
			return fmt.Errorf("%w: level %d has negative price %s", ErrInvalidCatalog, l.ID, l.Price)
		case l.CharitableGift.IsNegative():
			return fmt.Errorf("%w: level %d has negative charitable gift", ErrInvalidCatalog, l.ID)
		case l.CharitableGift.GreaterThan(l.Price):
			return fmt.Errorf("%w: level %d charitable gift exceeds price", ErrInvalidCatalog, l.ID)
		}

		if !l.Active {
			continue
		}
		if other, dup := triples[l.Entitlements()]; dup {
			return fmt.Errorf("%w: levels %d and %d share entitlements %+v",
				ErrInvalidCatalog, other, l.ID, l.Entitlements())
		}
		triples[l.Entitlements()] = l.ID
	}
	return nil
}
