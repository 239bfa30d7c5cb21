package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/cli"
	"github.com/redbuttegarden/memberships/internal/matrix"
)

const fixture = "../../testdata/membership_levels.json"

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestBuildCommand(t *testing.T) {
	Convey("Given the garden fixture", t, func() {
		dir := t.TempDir()

		Convey("When the matrix is written as JSON to a file", func() {
			out := filepath.Join(dir, "matrix.json")
			_, stderr, err := run("--fixture", fixture, "--out", out, "--workers", "3")

			Convey("Then the file holds every row", func() {
				So(err, ShouldBeNil)
				So(stderr, ShouldContainSubstring, "matrix written")
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var rep matrix.Report
				So(json.Unmarshal(data, &rep), ShouldBeNil)
				So(len(rep.Rows), ShouldEqual, 108)
				So(rep.RunID, ShouldNotBeEmpty)
				So(rep.FixturePath, ShouldEqual, fixture)
			})

			Convey("And the rows match the golden matrix", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				golden, err := os.ReadFile("../../testdata/membership_matrix.golden.json")
				So(err, ShouldBeNil)

				var got, want struct {
					Rows []any `json:"rows"`
				}
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(json.Unmarshal(golden, &want), ShouldBeNil)
				So(got.Rows, ShouldResemble, want.Rows)
			})
		})

		Convey("When the matrix is written as XLSX by the build subcommand", func() {
			out := filepath.Join(dir, "nested", "matrix.xlsx")
			_, _, err := run("build", "--fixture", fixture, "--out", out)
			So(err, ShouldBeNil)

			Convey("Then the workbook opens with 109 matrix rows", func() {
				f, err := excelize.OpenFile(out)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				rows, err := f.GetRows(matrix.SheetMatrix)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 109)
			})
		})

		Convey("When the matrix goes to stdout", func() {
			stdout, _, err := run("--fixture", fixture, "--out", "-")

			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, `"rows"`)
		})

		Convey("When the format is unknown", func() {
			_, _, err := run("--fixture", fixture, "--out", "-", "--format", "csv")

			So(errors.Is(err, matrix.ErrUnknownFormat), ShouldBeTrue)
		})

		Convey("When the fixture has two active levels with the same entitlements", func() {
			dup := filepath.Join(dir, "dup.json")
			So(os.WriteFile(dup, []byte(`[
  {"model":"memberships.membershiplevel","pk":1,"fields":{"name":"Dual","cardholders_included":2,"admissions_allowed":0,"member_sale_ticket_allowance":0,"price":"95.00"}},
  {"model":"memberships.membershiplevel","pk":2,"fields":{"name":"Dual Again","cardholders_included":2,"admissions_allowed":0,"member_sale_ticket_allowance":0,"price":"90.00"}}
]`), 0o600), ShouldBeNil)

			stdout, _, err := run("--fixture", dup, "--out", "-")

			Convey("Then no matrix is written", func() {
				So(errors.Is(err, repository.ErrInvalidCatalog), ShouldBeTrue)
				So(stdout, ShouldBeEmpty)
			})
		})

		Convey("When the fixture is missing", func() {
			_, _, err := run("--fixture", filepath.Join(dir, "missing.json"), "--out", "-")

			So(errors.Is(err, repository.ErrLoadFixture), ShouldBeTrue)
		})
	})
}

func TestLevelsCommand(t *testing.T) {
	Convey("Given the garden fixture", t, func() {
		Convey("When levels are printed", func() {
			stdout, _, err := run("levels", "--fixture", fixture)

			Convey("Then the normalized fixture round-trips", func() {
				So(err, ShouldBeNil)
				levels, err := repository.LoadFixture(context.Background(), bytes.NewBufferString(stdout))
				So(err, ShouldBeNil)
				So(len(levels), ShouldEqual, 10)
			})
		})
	})
}
