// Package recommend selects a best-fit membership level for a household and
// ranks cheaper and pricier alternatives around it.
package recommend

import "github.com/shopspring/decimal"

// TicketSteps is the ordered set of concert presale allowances a level may carry.
var TicketSteps = [...]int{0, 2, 4, 6}

// NextTicketStep returns the smallest step strictly greater than tickets.
func NextTicketStep(tickets int) (int, bool) {
	for _, v := range TicketSteps {
		if v > tickets {
			return v, true
		}
	}
	return 0, false
}

// PrevTicketStep returns the largest step strictly less than tickets.
func PrevTicketStep(tickets int) (int, bool) {
	prev, ok := 0, false
	for _, v := range TicketSteps {
		if v >= tickets {
			break
		}
		prev, ok = v, true
	}
	return prev, ok
}

// IsTicketStep reports whether tickets is one of TicketSteps.
func IsTicketStep(tickets int) bool {
	for _, v := range TicketSteps {
		if v == tickets {
			return true
		}
	}
	return false
}

// Level is a membership level as seen by the engine.
type Level struct {
	ID                  int
	Name                string
	CardholdersIncluded int
	AdmissionsAllowed   int // guests
	TicketAllowance     int
	Price               decimal.Decimal
	Active              bool
}

// Entitlements identifies a level by what it grants.
type Entitlements struct {
	Cardholders int
	Guests      int
	Tickets     int
}

// Entitlements returns the level's entitlement triple.
func (l Level) Entitlements() Entitlements {
	return Entitlements{
		Cardholders: l.CardholdersIncluded,
		Guests:      l.AdmissionsAllowed,
		Tickets:     l.TicketAllowance,
	}
}

// MatchType describes how the highlighted level was found.
type MatchType string

const (
	MatchNone  MatchType = ""
	MatchExact MatchType = "Exact"
	MatchBest  MatchType = "Best"
)

// Result is the outcome of one Recommend call. Nil slots are absent.
type Result struct {
	MatchType   MatchType
	Highlighted *Level
	Downsell1   *Level
	Downsell2   *Level
	Upsell1     *Level
	Upsell2     *Level
}

// Empty reports whether no level could be highlighted.
func (r Result) Empty() bool {
	return r.Highlighted == nil
}

// Slot names, in presentation order.
const (
	SlotDownsell1 = "downsell_1"
	SlotDownsell2 = "downsell_2"
	SlotUpsell1   = "upsell_1"
	SlotUpsell2   = "upsell_2"
)

// SlotLevel pairs a slot name with its (possibly nil) level.
type SlotLevel struct {
	Slot  string
	Level *Level
}

// Slots returns the four alternative slots in fixed order, including empty ones.
func (r Result) Slots() []SlotLevel {
	return []SlotLevel{
		{Slot: SlotDownsell1, Level: r.Downsell1},
		{Slot: SlotDownsell2, Level: r.Downsell2},
		{Slot: SlotUpsell1, Level: r.Upsell1},
		{Slot: SlotUpsell2, Level: r.Upsell2},
	}
}
