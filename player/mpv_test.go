package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("Given media targets", t, func() {
		Convey("Plain http and https URLs pass through", func() {
			for _, u := range []string{
				"http://stash.local/scene/1/stream.m3u8",
				"https://stash.local/scene/1/stream.m3u8?t=30",
			} {
				out, err := sanitizeMediaTarget(u)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, u)
			}
		})

		Convey("Flag-shaped input is rejected", func() {
			_, err := sanitizeMediaTarget("--script=/tmp/evil.lua")
			So(err, ShouldNotBeNil)
		})

		Convey("Control characters are rejected", func() {
			_, err := sanitizeMediaTarget("http://stash.local/a\nb")
			So(err, ShouldNotBeNil)
		})

		Convey("Unsupported schemes are rejected", func() {
			_, err := sanitizeMediaTarget("ftp://stash.local/scene")
			So(err, ShouldNotBeNil)
		})

		Convey("Empty input is rejected", func() {
			_, err := sanitizeMediaTarget("   ")
			So(err, ShouldNotBeNil)
		})

		Convey("Local paths are cleaned", func() {
			out, err := sanitizeMediaTarget("/media/./scenes/a.mp4")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "/media/scenes/a.mp4")
		})
	})
}

func TestSanitizeTitle(t *testing.T) {
	Convey("Titles are flattened to a single safe line", t, func() {
		So(sanitizeTitle("a\nb\tc\r"), ShouldEqual, "a b c")
		So(sanitizeTitle("  padded  "), ShouldEqual, "padded")
		So(sanitizeTitle("nul\x00byte"), ShouldEqual, "nulbyte")
	})
}
