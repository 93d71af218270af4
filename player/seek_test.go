package player

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/key"
)

func init() {
	// No real waiting in tests.
	sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	viper.Set(key.NavSeekRetries, 3)
}

func TestSeekWithRetry(t *testing.T) {
	Convey("Given a ready player", t, func() {
		p := newFakePlayer()
		p.duration = 600

		Convey("An exact seek lands on the first attempt and resumes playback", func() {
			p.paused = true
			SeekWithRetry(context.Background(), p, 120)

			So(p.position, ShouldEqual, 120)
			So(p.exactSeeks, ShouldEqual, 1)
			So(p.seeks, ShouldEqual, 0)
			So(p.paused, ShouldBeFalse)
		})

		Convey("A rejected exact seek falls back to the tolerant seek", func() {
			p.exactSeekErr = errors.New("exact seek unsupported")
			SeekWithRetry(context.Background(), p, 45)

			So(p.position, ShouldEqual, 45)
			So(p.exactSeeks, ShouldEqual, 1)
			So(p.seeks, ShouldEqual, 1)
		})
	})

	Convey("Given a player whose item is not yet ready", t, func() {
		p := newFakePlayer()
		p.ready = false

		Convey("The final attempt is forced regardless of readiness", func() {
			SeekWithRetry(context.Background(), p, 90)

			// Two readiness waits, then one forced seek.
			So(p.exactSeeks, ShouldEqual, 1)
			So(p.position, ShouldEqual, 90)
		})
	})

	Convey("Given a player that always rejects seeks", t, func() {
		p := newFakePlayer()
		rejected := errors.New("seek rejected")
		p.exactSeekErr = rejected
		p.seekErr = rejected

		Convey("The orchestrator gives up silently after all attempts", func() {
			So(func() { SeekWithRetry(context.Background(), p, 10) }, ShouldNotPanic)
			So(p.exactSeeks, ShouldEqual, 3)
		})
	})

	Convey("Given a cancelled context", t, func() {
		p := newFakePlayer()
		p.ready = false
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("The retry loop stops without seeking", func() {
			SeekWithRetry(ctx, p, 10)
			So(p.exactSeeks, ShouldEqual, 0)
		})
	})
}

func TestSpanGuard(t *testing.T) {
	Convey("Given a guard over a bounded span", t, func() {
		p := newFakePlayer()
		guard := NewSpanGuard(p, Span{Title: "Intro", Start: 60, End: 90})

		Convey("Positions inside the span pass through", func() {
			done, err := guard.Check(75)
			So(err, ShouldBeNil)
			So(done, ShouldBeFalse)
		})

		Convey("Reaching the end signals advance", func() {
			done, err := guard.Check(90)
			So(err, ShouldBeNil)
			So(done, ShouldBeTrue)
		})

		Convey("Positions well before the span reseek to its start", func() {
			done, err := guard.Check(10)
			So(err, ShouldBeNil)
			So(done, ShouldBeFalse)
			So(p.position, ShouldEqual, 60)
		})

		Convey("An open-ended span never signals", func() {
			open := NewSpanGuard(p, Span{Start: 60})
			done, err := open.Check(10000)
			So(err, ShouldBeNil)
			So(done, ShouldBeFalse)
		})
	})
}
