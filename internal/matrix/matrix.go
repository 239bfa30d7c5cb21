// Package matrix enumerates every selector input in the form's domain and
// records what the recommendation engine answers for each one.
package matrix

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/pkg/logger"
	"github.com/redbuttegarden/memberships/pkg/metrics"
)

// Default input domain: the values the selector form offers.
const (
	DefaultMaxCardholders = 3
	DefaultMaxGuests      = 8
)

// Cell is a level as it appears in one matrix slot.
type Cell struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	TicketAllowance int             `json:"member_sale_ticket_allowance"`
}

func newCell(l *recommend.Level) *Cell {
	if l == nil {
		return nil
	}
	return &Cell{ID: l.ID, Name: l.Name, Price: l.Price, TicketAllowance: l.TicketAllowance}
}

// Row is the engine's answer for one selector input.
type Row struct {
	Cardholders int    `json:"cardholders"`
	Guests      int    `json:"guests"`
	Tickets     int    `json:"tickets"`
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
	MatchType   string `json:"match_type,omitempty"`
	Highlighted *Cell  `json:"highlighted,omitempty"`
	Downsell1   *Cell  `json:"downsell_1,omitempty"`
	Downsell2   *Cell  `json:"downsell_2,omitempty"`
	Upsell1     *Cell  `json:"upsell_1,omitempty"`
	Upsell2     *Cell  `json:"upsell_2,omitempty"`
}

// Slots returns the four suggestion cells in display order.
func (r Row) Slots() [4]*Cell {
	return [4]*Cell{r.Downsell1, r.Downsell2, r.Upsell1, r.Upsell2}
}

// Builder computes matrix rows.
type Builder struct {
	validator      *selector.Validator
	workers        int
	maxCardholders int
	maxGuests      int
	logger         logger.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithValidator sets the validator deciding which inputs are valid.
func WithValidator(v *selector.Validator) Option {
	return func(b *Builder) {
		if v != nil {
			b.validator = v
		}
	}
}

// WithWorkers bounds the number of rows computed concurrently.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithDomain sets the largest cardholder and guest counts enumerated.
func WithDomain(maxCardholders, maxGuests int) Option {
	return func(b *Builder) {
		if maxCardholders > 0 {
			b.maxCardholders = maxCardholders
		}
		if maxGuests >= 0 {
			b.maxGuests = maxGuests
		}
	}
}

// WithLogger sets the builder's logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder over the default form domain.
func New(opts ...Option) *Builder {
	b := &Builder{
		workers:        runtime.NumCPU(),
		maxCardholders: DefaultMaxCardholders,
		maxGuests:      DefaultMaxGuests,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.validator == nil {
		b.validator = selector.New()
	}
	return b
}

// Points enumerates the input domain: cardholders, then guests, then tickets.
func (b *Builder) Points() []selector.Request {
	out := make([]selector.Request, 0, b.maxCardholders*(b.maxGuests+1)*len(recommend.TicketSteps))
	for c := 1; c <= b.maxCardholders; c++ {
		for g := 0; g <= b.maxGuests; g++ {
			for _, t := range recommend.TicketSteps {
				out = append(out, selector.Request{Cardholders: c, Guests: g, Tickets: t})
			}
		}
	}
	return out
}

// Build computes one row per point. Rows keep the order of Points no matter
// which worker finished first.
func (b *Builder) Build(ctx context.Context, levels []recommend.Level) ([]Row, error) {
	points := b.Points()
	rows := make([]Row, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, p := range points {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = b.row(levels, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	valid := 0
	for _, r := range rows {
		if r.Valid {
			valid++
		}
	}
	metrics.RecordMatrixRows(valid, len(rows)-valid)
	if b.logger != nil {
		b.logger.Info(ctx, "matrix built",
			logger.Int("rows", len(rows)),
			logger.Int("valid", valid),
			logger.Int("levels", len(levels)),
			logger.Int("workers", b.workers),
		)
	}
	return rows, nil
}

func (b *Builder) row(levels []recommend.Level, p selector.Request) Row {
	row := Row{Cardholders: p.Cardholders, Guests: p.Guests, Tickets: p.Tickets}
	if fields := b.validator.Validate(p); len(fields) > 0 {
		msgs := make([]string, len(fields))
		for i, f := range fields {
			msgs[i] = f.Field + ": " + f.Message
		}
		row.Error = strings.Join(msgs, " | ")
		return row
	}

	res := recommend.Recommend(levels, p.Cardholders, p.Guests, p.Tickets)
	row.Valid = true
	row.MatchType = string(res.MatchType)
	row.Highlighted = newCell(res.Highlighted)
	row.Downsell1 = newCell(res.Downsell1)
	row.Downsell2 = newCell(res.Downsell2)
	row.Upsell1 = newCell(res.Upsell1)
	row.Upsell2 = newCell(res.Upsell2)
	return row
}
