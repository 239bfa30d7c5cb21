package recommend

import "sort"

// Recommend picks the highlighted level for the requested entitlements and
// fills up to two downsells and two upsells around it.
//
// levels is never mutated and may contain inactive levels; they are ignored.
// Tickets outside TicketSteps never match exactly and fall through to the
// best-match path.
func Recommend(levels []Level, cardholders, guests, tickets int) Result {
	ix := newIndex(levels)

	h, match, ok := ix.highlight(cardholders, guests, tickets)
	if !ok {
		return Result{}
	}

	excl := exclusion{}.with(h.ID)
	cheaper := func(l Level) bool { return l.Price.LessThan(h.Price) }
	anyLevel := func(Level) bool { return true }

	prev, hasPrev := PrevTicketStep(tickets)
	next, hasNext := NextTicketStep(tickets)
	c, g, t := cardholders, guests, tickets

	d1, excl := ix.pick(h, excl, cheaper, 1,
		rule{Entitlements{c, g, prev}, hasPrev},
		rule{Entitlements{c, g - 1, t}, g > 0},
	)
	d2, excl := ix.pick(h, excl, cheaper, 2,
		rule{Entitlements{c - 1, g + 1, t}, c > 1},
		rule{Entitlements{c, g - 1, t}, g >= 1},
		rule{Entitlements{c, g - 2, t}, g >= 2},
	)
	u1, excl := ix.pick(h, excl, anyLevel, 1,
		rule{Entitlements{c, g, next}, hasNext},
		rule{Entitlements{c, g + 1, t}, true},
	)
	u2, _ := ix.pick(h, excl, anyLevel, 2,
		rule{Entitlements{c + 1, g - 1, t}, g >= 1},
		rule{Entitlements{c, g + 1, t}, true},
		rule{Entitlements{c, g + 2, t}, true},
	)

	return Result{
		MatchType:   match,
		Highlighted: &h,
		Downsell1:   d1,
		Downsell2:   d2,
		Upsell1:     u1,
		Upsell2:     u2,
	}
}

// exclusion is an immutable set of level ids already placed in a slot.
type exclusion struct {
	ids []int
}

func (e exclusion) has(id int) bool {
	for _, v := range e.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (e exclusion) with(id int) exclusion {
	ids := make([]int, len(e.ids), len(e.ids)+1)
	copy(ids, e.ids)
	return exclusion{ids: append(ids, id)}
}

// rule is one exact-triple lookup, skipped when enabled is false.
type rule struct {
	want    Entitlements
	enabled bool
}

type index struct {
	byTriple map[Entitlements]Level
	sorted   []Level // active levels by (price, id) ascending
}

func newIndex(levels []Level) index {
	ix := index{byTriple: make(map[Entitlements]Level, len(levels))}
	for _, l := range levels {
		if !l.Active {
			continue
		}
		// Duplicate triples are a catalog defect; the first one seen wins.
		if _, dup := ix.byTriple[l.Entitlements()]; !dup {
			ix.byTriple[l.Entitlements()] = l
		}
		ix.sorted = append(ix.sorted, l)
	}
	sort.SliceStable(ix.sorted, func(i, j int) bool {
		a, b := ix.sorted[i], ix.sorted[j]
		if cmp := a.Price.Cmp(b.Price); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
	return ix
}

func (ix index) highlight(cardholders, guests, tickets int) (Level, MatchType, bool) {
	if l, ok := ix.byTriple[Entitlements{cardholders, guests, tickets}]; ok {
		return l, MatchExact, true
	}

	var covering, lowest *Level
	for i := range ix.sorted {
		l := &ix.sorted[i]
		if l.CardholdersIncluded != cardholders || l.AdmissionsAllowed != guests {
			continue
		}
		if l.TicketAllowance >= tickets && (covering == nil || ticketLess(*l, *covering)) {
			covering = l
		}
		if lowest == nil || ticketLess(*l, *lowest) {
			lowest = l
		}
	}
	switch {
	case covering != nil:
		return *covering, MatchBest, true
	case lowest != nil:
		return *lowest, MatchBest, true
	}
	return Level{}, MatchNone, false
}

// ticketLess orders by (ticket allowance, price, id).
func ticketLess(a, b Level) bool {
	if a.TicketAllowance != b.TicketAllowance {
		return a.TicketAllowance < b.TicketAllowance
	}
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp < 0
	}
	return a.ID < b.ID
}

// pick tries rules in order, then the nth sorted-list fallback. It returns the
// chosen level (nil when nothing qualifies) and the exclusion set including it.
func (ix index) pick(anchor Level, excl exclusion, accept func(Level) bool, n int, rules ...rule) (*Level, exclusion) {
	for _, r := range rules {
		if !r.enabled {
			continue
		}
		l, ok := ix.byTriple[r.want]
		if !ok || excl.has(l.ID) || !accept(l) {
			continue
		}
		return &l, excl.with(l.ID)
	}
	if l, ok := ix.nthAfter(anchor, n, excl, accept); ok {
		return &l, excl.with(l.ID)
	}
	return nil, excl
}

// nthAfter walks the price-sorted list forward from anchor and returns the nth
// acceptable level not yet excluded. When fewer than n remain it restarts from
// the cheapest level and returns the nth acceptable one overall, or the last
// acceptable one if there are fewer than n.
func (ix index) nthAfter(anchor Level, n int, excl exclusion, accept func(Level) bool) (Level, bool) {
	usable := func(l Level) bool { return !excl.has(l.ID) && accept(l) }

	start := 0
	for i, l := range ix.sorted {
		if l.ID == anchor.ID {
			start = i + 1
			break
		}
	}
	seen := 0
	for _, l := range ix.sorted[start:] {
		if !usable(l) {
			continue
		}
		seen++
		if seen == n {
			return l, true
		}
	}

	var last Level
	seen = 0
	for _, l := range ix.sorted {
		if !usable(l) {
			continue
		}
		last = l
		seen++
		if seen == n {
			return l, true
		}
	}
	return last, seen > 0
}
