package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
)

const levelModelSuffix = ".membershiplevel"

// fixtureRecord is one entry of a CMS data dump.
type fixtureRecord struct {
	Model  string          `json:"model"`
	PK     int             `json:"pk"`
	Fields json.RawMessage `json:"fields"`
}

type fixtureLevel struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	CardholdersIncluded int             `json:"cardholders_included"`
	AdmissionsAllowed   int             `json:"admissions_allowed"`
	TicketAllowance     int             `json:"member_sale_ticket_allowance"`
	Price               decimal.Decimal `json:"price"`
	CharitableGift      decimal.Decimal `json:"charitable_gift_amount"`
	PurchaseURL         string          `json:"purchase_url"`
	Active              *bool           `json:"active"`
}

// LoadFixture decodes membership levels from a CMS fixture dump. Records of
// other models are skipped; a missing active flag means active.
func LoadFixture(_ context.Context, r io.Reader) ([]CatalogLevel, error) {
	var records []fixtureRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFixture, err)
	}

	levels := make([]CatalogLevel, 0, len(records))
	for _, rec := range records {
		if !strings.HasSuffix(strings.ToLower(rec.Model), levelModelSuffix) {
			continue
		}
		var f fixtureLevel
		if err := json.Unmarshal(rec.Fields, &f); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrLoadFixture, rec.PK, err)
		}
		active := true
		if f.Active != nil {
			active = *f.Active
		}
		levels = append(levels, CatalogLevel{
			Level: recommend.Level{
				ID:                  rec.PK,
				Name:                f.Name,
				CardholdersIncluded: f.CardholdersIncluded,
				AdmissionsAllowed:   f.AdmissionsAllowed,
				TicketAllowance:     f.TicketAllowance,
				Price:               f.Price,
				Active:              active,
			},
			Description:    f.Description,
			PurchaseURL:    f.PurchaseURL,
			CharitableGift: f.CharitableGift,
		})
	}
	return levels, nil
}

// LoadFixtureFile opens path and decodes it with LoadFixture.
func LoadFixtureFile(ctx context.Context, path string) ([]CatalogLevel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFixture, err)
	}
	defer func() { _ = f.Close() }()
	return LoadFixture(ctx, f)
}

// WriteFixture encodes levels in the same dump format LoadFixture reads.
func WriteFixture(_ context.Context, w io.Writer, levels []CatalogLevel) error {
	records := make([]map[string]any, 0, len(levels))
	for _, l := range levels {
		active := l.Active
		records = append(records, map[string]any{
			"model": "memberships" + levelModelSuffix,
			"pk":    l.ID,
			"fields": fixtureLevel{
				Name:                l.Name,
				Description:         l.Description,
				CardholdersIncluded: l.CardholdersIncluded,
				AdmissionsAllowed:   l.AdmissionsAllowed,
				TicketAllowance:     l.TicketAllowance,
				Price:               l.Price,
				CharitableGift:      l.CharitableGift,
				PurchaseURL:         l.PurchaseURL,
				Active:              &active,
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
