package repository_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	repository "github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/domain/recommend"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

const fixtureJSON = `[
  {"model": "memberships.membershiplabel", "pk": 1, "fields": {"cardholder_label": "Cardholders"}},
  {"model": "memberships.membershiplevel", "pk": 3, "fields": {
    "name": "Dual Garden", "cardholders_included": 2, "admissions_allowed": 0,
    "member_sale_ticket_allowance": 0, "price": "95.00", "active": true}},
  {"model": "memberships.MembershipLevel", "pk": 1, "fields": {
    "name": "Individual Garden", "cardholders_included": 1, "admissions_allowed": 0,
    "member_sale_ticket_allowance": 0, "price": 65, "purchase_url": "https://example.org/buy/1",
    "charitable_gift_amount": "15.00"}},
  {"model": "memberships.membershiplevel", "pk": 2, "fields": {
    "name": "Retired Level", "cardholders_included": 1, "admissions_allowed": 1,
    "member_sale_ticket_allowance": 2, "price": "110.50", "active": false}}
]`

func catalogLevel(id, c, g, t int, price string, active bool) repository.CatalogLevel {
	return repository.CatalogLevel{Level: recommend.Level{
		ID:                  id,
		Name:                "level",
		CardholdersIncluded: c,
		AdmissionsAllowed:   g,
		TicketAllowance:     t,
		Price:               decimal.RequireFromString(price),
		Active:              active,
	}}
}

func TestLoadFixture(t *testing.T) {
	Convey("Given a CMS fixture dump", t, func() {
		ctx := context.Background()

		Convey("When it is decoded", func() {
			levels, err := repository.LoadFixture(ctx, strings.NewReader(fixtureJSON))

			Convey("Then only membership levels are kept", func() {
				So(err, ShouldBeNil)
				So(len(levels), ShouldEqual, 3)
			})

			Convey("And string and numeric prices both parse", func() {
				So(levels[0].Price.Equal(decimal.RequireFromString("95.00")), ShouldBeTrue)
				So(levels[1].Price.Equal(decimal.NewFromInt(65)), ShouldBeTrue)
				So(levels[2].Price.String(), ShouldEqual, "110.5")
			})

			Convey("And a missing active flag means active", func() {
				So(levels[1].Active, ShouldBeTrue)
				So(levels[2].Active, ShouldBeFalse)
			})

			Convey("And visitor-facing details are carried", func() {
				So(levels[1].PurchaseURL, ShouldEqual, "https://example.org/buy/1")
				So(levels[1].CharitableGift.Equal(decimal.RequireFromString("15")), ShouldBeTrue)
			})
		})

		Convey("When the dump is malformed", func() {
			_, err := repository.LoadFixture(ctx, strings.NewReader(`[{"model":`))

			So(errors.Is(err, repository.ErrLoadFixture), ShouldBeTrue)
		})

		Convey("When a record has a malformed price", func() {
			_, err := repository.LoadFixture(ctx, strings.NewReader(
				`[{"model":"memberships.membershiplevel","pk":9,"fields":{"price":"abc"}}]`))

			So(errors.Is(err, repository.ErrLoadFixture), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := repository.LoadFixtureFile(ctx, filepath.Join(t.TempDir(), "missing.json"))

			So(errors.Is(err, repository.ErrLoadFixture), ShouldBeTrue)
		})

		Convey("When levels are written back out and re-read", func() {
			levels, err := repository.LoadFixture(ctx, strings.NewReader(fixtureJSON))
			So(err, ShouldBeNil)

			path := filepath.Join(t.TempDir(), "levels.json")
			var buf bytes.Buffer
			So(repository.WriteFixture(ctx, &buf, levels), ShouldBeNil)
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

			again, err := repository.LoadFixtureFile(ctx, path)

			Convey("Then the entitlements and prices survive", func() {
				So(err, ShouldBeNil)
				So(len(again), ShouldEqual, len(levels))
				for i := range levels {
					So(again[i].Entitlements(), ShouldResemble, levels[i].Entitlements())
					So(again[i].Price.Equal(levels[i].Price), ShouldBeTrue)
					So(again[i].Active, ShouldEqual, levels[i].Active)
				}
			})
		})
	})
}

func TestInMemoryStore(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewInMemoryStore()

		Convey("Then it is empty", func() {
			total, active := store.Count(ctx)
			So(total, ShouldEqual, 0)
			So(active, ShouldEqual, 0)
			So(store.List(ctx), ShouldBeEmpty)
		})

		Convey("When a valid catalog is installed", func() {
			err := store.Replace(ctx, []repository.CatalogLevel{
				catalogLevel(5, 2, 0, 0, "95", true),
				catalogLevel(1, 1, 0, 0, "65", true),
				catalogLevel(3, 1, 0, 0, "60", false),
			})

			Convey("Then it is listed by id with counts", func() {
				So(err, ShouldBeNil)
				list := store.List(ctx)
				So(list[0].ID, ShouldEqual, 1)
				So(list[1].ID, ShouldEqual, 3)
				So(list[2].ID, ShouldEqual, 5)

				total, active := store.Count(ctx)
				So(total, ShouldEqual, 3)
				So(active, ShouldEqual, 2)

				engine := repository.EngineLevels(list)
				So(len(engine), ShouldEqual, 3)
				So(engine[2].ID, ShouldEqual, 5)
				So(engine[1].Active, ShouldBeFalse)
			})

			Convey("And levels can be fetched by id", func() {
				l, err := store.Get(ctx, 5)
				So(err, ShouldBeNil)
				So(l.CardholdersIncluded, ShouldEqual, 2)

				_, err = store.Get(ctx, 42)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And mutating a listed copy does not change the store", func() {
				list := store.List(ctx)
				list[0].Name = "changed"
				l, _ := store.Get(ctx, 1)
				So(l.Name, ShouldEqual, "level")
			})

			Convey("And an invalid replacement keeps the previous catalog", func() {
				err := store.Replace(ctx, []repository.CatalogLevel{
					catalogLevel(1, 1, 0, 0, "-1", true),
				})
				So(errors.Is(err, repository.ErrInvalidCatalog), ShouldBeTrue)
				total, _ := store.Count(ctx)
				So(total, ShouldEqual, 3)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given catalog constraints", t, func() {
		Convey("Duplicate ids are rejected", func() {
			err := repository.Validate([]repository.CatalogLevel{
				catalogLevel(1, 1, 0, 0, "65", true),
				catalogLevel(1, 2, 0, 0, "95", true),
			})
			So(errors.Is(err, repository.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("Two active levels with one triple are rejected", func() {
			err := repository.Validate([]repository.CatalogLevel{
				catalogLevel(1, 1, 0, 0, "65", true),
				catalogLevel(2, 1, 0, 0, "70", true),
			})
			So(errors.Is(err, repository.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("An inactive duplicate triple is allowed", func() {
			err := repository.Validate([]repository.CatalogLevel{
				catalogLevel(1, 1, 0, 0, "65", true),
				catalogLevel(2, 1, 0, 0, "70", false),
			})
			So(err, ShouldBeNil)
		})

		Convey("Negative entitlements are rejected", func() {
			err := repository.Validate([]repository.CatalogLevel{catalogLevel(1, -1, 0, 0, "65", true)})
			So(errors.Is(err, repository.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("A gift larger than the price is rejected", func() {
			l := catalogLevel(1, 1, 0, 0, "65", true)
			l.CharitableGift = decimal.NewFromInt(70)
			So(errors.Is(repository.Validate([]repository.CatalogLevel{l}), repository.ErrInvalidCatalog), ShouldBeTrue)
		})
	})
}
