package history

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/stash"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given a scene", t, func() {
		scene := &stash.Scene{
			ID:    "42",
			Title: "morning swim",
			Paths: stash.ScenePaths{Stream: "http://stash.local/scene/42/stream"},
		}

		Convey("When saving the scene", func() {
			err := Save(scene, 25.0)
			Convey("Then the error should be nil", func() {
				So(err, ShouldBeNil)

				Convey("And the scene should be saved", func() {
					scenes, err := Get()
					So(err, ShouldBeNil)
					So(len(scenes), ShouldBeGreaterThan, 0)
					So(scenes["42"].Title, ShouldEqual, "morning swim")
					So(scenes["42"].WatchedPercentage, ShouldEqual, 25.0)
				})
			})
		})

		Convey("When saving again with a lower percentage", func() {
			So(Save(scene, 80.0), ShouldBeNil)
			So(Save(scene, 10.0), ShouldBeNil)

			Convey("Then the maximum percentage is kept", func() {
				scenes, err := Get()
				So(err, ShouldBeNil)
				So(scenes["42"].WatchedPercentage, ShouldEqual, 80.0)
			})
		})

		Convey("When removing the record", func() {
			So(Save(scene, 50.0), ShouldBeNil)
			scenes, err := Get()
			So(err, ShouldBeNil)
			So(Remove(scenes["42"]), ShouldBeNil)

			Convey("Then it is gone", func() {
				scenes, err := Get()
				So(err, ShouldBeNil)
				_, ok := scenes["42"]
				So(ok, ShouldBeFalse)
			})
		})
	})
}
