package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given a registry with an active player", t, func() {
		registry := NewRegistry()
		first := newFakePlayer()
		registry.Register(first)

		Convey("Current returns the registered player", func() {
			So(registry.Current(), ShouldEqual, first)
		})

		Convey("Registering a replacement closes the previous player", func() {
			second := newFakePlayer()
			registry.Register(second)

			So(registry.Current(), ShouldEqual, second)
			So(first.closed, ShouldBeTrue)
		})

		Convey("Clear pauses and releases the player and drops the reference", func() {
			registry.Clear()

			So(registry.Current(), ShouldBeNil)
			So(first.paused, ShouldBeTrue)
			So(first.closed, ShouldBeTrue)
		})

		Convey("Clear on an empty registry is a no-op", func() {
			registry.Clear()
			registry.Clear()
			So(registry.Current(), ShouldBeNil)
		})
	})

	Convey("Given preview players alongside the active one", t, func() {
		registry := NewRegistry()
		preview1 := newFakePlayer()
		preview2 := newFakePlayer()
		registry.RegisterPreview(preview1)
		registry.RegisterPreview(preview2)

		Convey("The pre-emption broadcast pauses and mutes all previews", func() {
			main := newFakePlayer()
			registry.Register(main)

			So(preview1.paused, ShouldBeTrue)
			So(preview1.muted, ShouldBeTrue)
			So(preview2.paused, ShouldBeTrue)
			So(preview2.muted, ShouldBeTrue)
			So(main.paused, ShouldBeFalse)
			So(main.muted, ShouldBeFalse)
		})

		Convey("StopAll reaches every player including the active one", func() {
			main := newFakePlayer()
			registry.Register(main)
			registry.StopAll()

			So(main.paused, ShouldBeTrue)
			So(preview1.paused, ShouldBeTrue)
		})
	})
}
