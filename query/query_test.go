package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/key"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.SearchShowQuerySuggestions, true)
}

func TestQuery(t *testing.T) {
	Convey("Given query history", t, func() {
		q1 := "poolside"
		q2 := "beach day"

		Convey("When remembering queries", func() {
			err := Remember(q1, 1)
			So(err, ShouldBeNil)
			err = Remember(q2, 10)
			So(err, ShouldBeNil)

			Convey("Then suggestions should be sorted by rank", func() {
				// Drop the in-memory layer to force a read from disk.
				suggestionCache = make(map[string][]*queryRecord)

				s := SuggestMany("bea")
				So(len(s), ShouldBeGreaterThanOrEqualTo, 1)
				So(s[0], ShouldEqual, "beach day")
			})

			Convey("It sanitizes input", func() {
				So(sanitize("  POOLSIDE  "), ShouldEqual, "poolside")
			})
		})

		Convey("When suggestions are disabled", func() {
			viper.Set(key.SearchShowQuerySuggestions, false)
			defer viper.Set(key.SearchShowQuerySuggestions, true)

			So(SuggestMany("bea"), ShouldBeEmpty)
		})
	})
}
