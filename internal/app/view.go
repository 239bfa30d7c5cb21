package service

import (
	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/domain/pricing"
	"github.com/redbuttegarden/memberships/internal/domain/recommend"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/internal/domain/types"
)

func newLevelView(l repository.CatalogLevel, discount decimal.Decimal) types.LevelView {
	return types.LevelView{
		ID:                   l.ID,
		Name:                 l.Name,
		Description:          l.Description,
		CardholdersIncluded:  l.CardholdersIncluded,
		AdmissionsAllowed:    l.AdmissionsAllowed,
		TicketAllowance:      l.TicketAllowance,
		Price:                l.Price,
		AutoRenewPrice:       pricing.AutoRenewPrice(l.Price, discount),
		HasAutoRenewDiscount: pricing.HasAutoRenewDiscount(discount),
		CharitableGift:       l.CharitableGift,
		PurchaseURL:          l.PurchaseURL,
		Active:               l.Active,
	}
}

func badgeFor(slot string) string {
	switch slot {
	case recommend.SlotDownsell1, recommend.SlotDownsell2:
		return types.BadgeDownsell
	default:
		return types.BadgeUpsell
	}
}

// buildRecommendation turns an engine result into the display view. Levels
// missing from byID are skipped.
func buildRecommendation(
	req selector.Request,
	res recommend.Result,
	byID map[int]repository.CatalogLevel,
	discount decimal.Decimal,
) types.Recommendation {
	rec := types.Recommendation{Requested: req, Suggestions: []types.Suggestion{}}
	if res.Empty() {
		return rec
	}

	match := string(res.MatchType)
	rec.MatchType = &match
	if l, ok := byID[res.Highlighted.ID]; ok {
		v := newLevelView(l, discount)
		rec.Highlighted = &v
	} else {
		v := newLevelView(repository.CatalogLevel{Level: *res.Highlighted}, discount)
		rec.Highlighted = &v
	}

	for _, s := range res.Slots() {
		if s.Level == nil {
			continue
		}
		l, ok := byID[s.Level.ID]
		if !ok {
			continue
		}
		rec.Suggestions = append(rec.Suggestions, types.Suggestion{
			Badge: badgeFor(s.Slot),
			Slot:  s.Slot,
			Level: newLevelView(l, discount),
		})
	}
	return rec
}
