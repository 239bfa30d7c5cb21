// Package types contains the read shapes shared by the service and its adapters.
package types

import (
	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/domain/selector"
)

// Suggestion badges. They follow the slot, not the position in the list, so
// an empty downsell never turns an upsell into a "Downsell".
const (
	BadgeDownsell = "Downsell"
	BadgeUpsell   = "Upsell"
)

// LevelView is a catalog level prepared for display.
type LevelView struct {
	ID                   int             `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	CardholdersIncluded  int             `json:"cardholders_included"`
	AdmissionsAllowed    int             `json:"admissions_allowed"`
	TicketAllowance      int             `json:"member_sale_ticket_allowance"`
	Price                decimal.Decimal `json:"price"`
	AutoRenewPrice       decimal.Decimal `json:"auto_renew_price"`
	HasAutoRenewDiscount bool            `json:"has_auto_renew_discount"`
	CharitableGift       decimal.Decimal `json:"charitable_gift_amount"`
	PurchaseURL          string          `json:"purchase_url,omitempty"`
	Active               bool            `json:"active"`
}

// Suggestion is one alternative shown next to the highlighted level.
type Suggestion struct {
	Badge string    `json:"badge"`
	Slot  string    `json:"slot"`
	Level LevelView `json:"level"`
}

// Recommendation is the answer to one selector submission. MatchType and
// Highlighted are nil when no level fits the requested cardholders and guests.
type Recommendation struct {
	Requested   selector.Request `json:"requested"`
	MatchType   *string          `json:"match_type"`
	Highlighted *LevelView       `json:"highlighted"`
	Suggestions []Suggestion     `json:"suggestions"`
}
