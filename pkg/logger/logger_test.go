package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWithOptions("xml", nil), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithOptions(FormatJSON, &buf), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("catalog").Info(ctx, "loaded", Int("levels", 3), Bool("ok", true))
			out := buf.String()

			Convey("Then the record is structured and carries the source", func() {
				So(out, ShouldContainSubstring, `"msg":"loaded"`)
				So(out, ShouldContainSubstring, `"levels":3`)
				So(out, ShouldContainSubstring, `"logger":"catalog"`)
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters debug", func() {
			Get().Debug(ctx, "hidden")
			So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)

			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When a Stringer field is logged", func() {
			Get().Info(ctx, "priced", Stringer("price", stringer("110.5")), Bool("discounted", false))

			So(buf.String(), ShouldContainSubstring, `"price":"110.5"`)
			So(buf.String(), ShouldContainSubstring, `"discounted":false`)
		})

		Convey("When logging through Discard", func() {
			Discard().Info(ctx, "dropped", String("k", "v"))

			So(strings.Contains(buf.String(), "dropped"), ShouldBeFalse)
		})

		Convey("When an unknown level is set", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

type stringer string

func (s stringer) String() string { return string(s) }
