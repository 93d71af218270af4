package nav

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/stashsurf-cli/stashsurf/player"
	"github.com/stashsurf-cli/stashsurf/stash"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.NavQueuePageSize, 25)
	viper.Set(key.NavSeekRetries, 3)
	viper.Set(key.HistorySaveOnWatch, false)
}

// fakePlayer records the playback mutations the session performs.
type fakePlayer struct {
	urls   []string
	titles []string
	seeks  []float64
	closed bool
	paused bool
	muted  bool
}

func (f *fakePlayer) Play(url, title string, _ map[string]string) error {
	f.urls = append(f.urls, url)
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakePlayer) TogglePause() error { f.paused = !f.paused; return nil }

func (f *fakePlayer) SetPaused(paused bool) error { f.paused = paused; return nil }

func (f *fakePlayer) SetMuted(muted bool) error { f.muted = muted; return nil }

func (f *fakePlayer) GetTimePos() (float64, error) { return 0, nil }

func (f *fakePlayer) GetDuration() (float64, error) { return 600, nil }

func (f *fakePlayer) GetPercentWatched() (float64, error) { return 50, nil }

func (f *fakePlayer) GetPausedStatus() (bool, error) { return f.paused, nil }

func (f *fakePlayer) HasActivePlayback() (bool, error) { return true, nil }

func (f *fakePlayer) Seek(seconds float64) error {
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakePlayer) SeekExact(seconds float64) error {
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakePlayer) IsRunning() bool { return !f.closed }

func (f *fakePlayer) Close() error { f.closed = true; return nil }

func (f *fakePlayer) Socket() string { return "" }

func (f *fakePlayer) StartIPCTicker(func(timePos int, duration int)) {}

func (f *fakePlayer) StopIPCTicker() {}

func (f *fakePlayer) Wait() <-chan struct{} { return make(chan struct{}) }

func (f *fakePlayer) lastURL() string {
	if len(f.urls) == 0 {
		return ""
	}
	return f.urls[len(f.urls)-1]
}

// fakeSearcher serves canned candidate sets. The optional hook runs before a
// candidate query returns, letting tests race session mutations against an
// in-flight advance.
type fakeSearcher struct {
	scenes    []*stash.Scene
	markers   []*stash.Marker
	byPerf    map[string][]*stash.Scene
	broadPerf map[string][]*stash.Scene
	err       error
	hook      func()
}

func (f *fakeSearcher) queried() {
	if f.hook != nil {
		f.hook()
	}
}

func (f *fakeSearcher) ScenesByTags(context.Context, []string, int) ([]*stash.Scene, error) {
	f.queried()
	return f.scenes, f.err
}

func (f *fakeSearcher) ScenesByQuery(context.Context, string, int) ([]*stash.Scene, error) {
	f.queried()
	return f.scenes, f.err
}

func (f *fakeSearcher) ScenesByPerformer(_ context.Context, performerID string, broad bool, _ int) ([]*stash.Scene, error) {
	if broad {
		return f.broadPerf[performerID], f.err
	}
	return f.byPerf[performerID], f.err
}

func (f *fakeSearcher) RandomScenes(context.Context, int) ([]*stash.Scene, error) {
	f.queried()
	return f.scenes, f.err
}

func (f *fakeSearcher) MarkersByTags(context.Context, []string, int) ([]*stash.Marker, error) {
	return f.markers, f.err
}

func (f *fakeSearcher) MarkersByQuery(context.Context, string, int) ([]*stash.Marker, error) {
	return f.markers, f.err
}

func testScene(id string, performers ...*stash.Performer) *stash.Scene {
	return &stash.Scene{
		ID:         id,
		Title:      fmt.Sprintf("scene %s", id),
		Paths:      stash.ScenePaths{Stream: fmt.Sprintf("http://stash.local/scene/%s/stream", id)},
		Performers: performers,
		Files: []struct {
			Duration float64 `json:"duration"`
		}{{Duration: 600}},
	}
}

func newTestSession(searcher Searcher) (*Session, *fakePlayer) {
	registry := player.NewRegistry()
	p := &fakePlayer{}
	registry.Register(p)

	session := NewSession(searcher, registry)
	session.excluded = func(*stash.Scene) bool { return false }
	return session, p
}

func TestRandomJumpTarget(t *testing.T) {
	Convey("Given a ten minute item", t, func() {
		rng := rand.New(rand.NewSource(1))

		Convey("Targets always land within the safe window", func() {
			for i := 0; i < 1000; i++ {
				target := randomJumpTarget(600, rng)
				So(target, ShouldBeGreaterThanOrEqualTo, 30)
				So(target, ShouldBeLessThanOrEqualTo, 540)
			}
		})
	})

	Convey("Given a very short item", t, func() {
		rng := rand.New(rand.NewSource(1))

		Convey("The degenerate window falls back to half the duration", func() {
			So(randomJumpTarget(20, rng), ShouldEqual, 10)
		})

		Convey("The fallback is capped at five minutes", func() {
			So(randomJumpTarget(26, rng), ShouldEqual, 13)
		})
	})
}

func TestSequentialAdvance(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session on the last item of its context list", t, func() {
		list := []*stash.Scene{testScene("1"), testScene("2"), testScene("3")}
		session, p := newTestSession(&fakeSearcher{})
		session.SetContextList(list)

		So(session.Open(ctx, list[2]), ShouldBeNil)
		session.SetMode(Sequential)

		Convey("Advance wraps around to the first item", func() {
			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "1")
			So(p.lastURL(), ShouldContainSubstring, "/scene/1/stream.m3u8")
		})
	})

	Convey("Given a random jump session", t, func() {
		list := []*stash.Scene{testScene("1"), testScene("2")}
		session, p := newTestSession(&fakeSearcher{})
		session.SetContextList(list)

		So(session.Open(ctx, list[0]), ShouldBeNil)
		session.SetMode(RandomJump)

		Convey("Advance loads the next item and seeks inside the safe window", func() {
			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "2")
			So(len(p.seeks), ShouldBeGreaterThan, 0)

			last := p.seeks[len(p.seeks)-1]
			So(last, ShouldBeGreaterThanOrEqualTo, 30)
			So(last, ShouldBeLessThanOrEqualTo, 540)
		})
	})
}

func TestShuffleAdvance(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tag shuffle session", t, func() {
		searcher := &fakeSearcher{scenes: []*stash.Scene{testScene("a"), testScene("b")}}
		session, p := newTestSession(searcher)

		So(session.EnterTagShuffle(ctx, Filter{TagIDs: []string{"7"}}), ShouldBeNil)

		Convey("Entering plays the first candidate", func() {
			So(session.Current().ID, ShouldEqual, "a")
			So(session.Mode(), ShouldEqual, TagShuffle)
		})

		Convey("Advance pops the next candidate and wraps", func() {
			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "b")

			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "a")
			So(len(p.urls), ShouldEqual, 3)
		})
	})

	Convey("Given a marker shuffle session", t, func() {
		marker := &stash.Marker{
			ID:      "m1",
			Title:   "dive",
			Seconds: 30,
			Scene:   testScene("s1"),
		}
		searcher := &fakeSearcher{markers: []*stash.Marker{marker}}
		session, p := newTestSession(searcher)

		So(session.EnterMarkerShuffle(ctx, Filter{TagIDs: []string{"9"}}), ShouldBeNil)

		Convey("The marker offset rides the stream URL", func() {
			So(session.Mode(), ShouldEqual, MarkerShuffle)
			So(p.lastURL(), ShouldContainSubstring, ".m3u8")
			So(p.lastURL(), ShouldContainSubstring, "t=30")
		})
	})

	Convey("Given a shuffle whose initial build found nothing", t, func() {
		searcher := &fakeSearcher{}
		session, p := newTestSession(searcher)

		So(session.EnterTagShuffle(ctx, Filter{TagIDs: []string{"7"}}), ShouldBeNil)
		So(len(p.urls), ShouldEqual, 0)

		Convey("A later advance rebuilds the queue from the last filter", func() {
			searcher.scenes = []*stash.Scene{testScene("late")}

			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "late")
		})
	})
}

func TestPerformerDiscovery(t *testing.T) {
	ctx := context.Background()

	Convey("Given an anchored discovery session", t, func() {
		anchor := &stash.Performer{ID: "p1", Name: "Alex"}
		current := testScene("cur", anchor)
		others := []*stash.Scene{
			testScene("cur", anchor),
			testScene("x", anchor),
			testScene("y", anchor),
		}
		searcher := &fakeSearcher{byPerf: map[string][]*stash.Scene{"p1": others}}
		session, _ := newTestSession(searcher)

		So(session.Open(ctx, current), ShouldBeNil)
		session.SetMode(PerformerDiscovery)

		Convey("The current scene is never selected again", func() {
			for i := 0; i < 20; i++ {
				previous := session.Current().ID
				So(session.Advance(ctx), ShouldBeNil)
				So(session.Current().ID, ShouldNotEqual, previous)
			}
		})

		Convey("The anchor is cleared when the new scene has no performers", func() {
			searcher.byPerf["p1"] = []*stash.Scene{testScene("bare")}

			So(session.Advance(ctx), ShouldBeNil)
			So(session.Current().ID, ShouldEqual, "bare")
			So(session.anchor.IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Given a performer with a single scene", t, func() {
		anchor := &stash.Performer{ID: "solo", Name: "Sam"}
		current := testScene("only", anchor)
		searcher := &fakeSearcher{
			byPerf:    map[string][]*stash.Scene{"solo": {testScene("only", anchor)}},
			broadPerf: map[string][]*stash.Scene{"solo": {testScene("only", anchor)}},
		}
		session, p := newTestSession(searcher)

		So(session.Open(ctx, current), ShouldBeNil)
		session.SetMode(PerformerDiscovery)
		loads := len(p.urls)

		Convey("Advance degrades to a random jump on the current item", func() {
			So(session.Advance(ctx), ShouldBeNil)

			So(session.Current().ID, ShouldEqual, "only")
			So(len(p.urls), ShouldEqual, loads)
			So(len(p.seeks), ShouldBeGreaterThan, 0)
			So(session.Mode(), ShouldEqual, PerformerDiscovery)
		})
	})
}

func TestLibraryRandom(t *testing.T) {
	ctx := context.Background()

	Convey("Given excluded category tags", t, func() {
		blocked := testScene("blocked")
		blocked.Tags = []*stash.Tag{{ID: "t1", Name: "skip-me"}}
		searcher := &fakeSearcher{scenes: []*stash.Scene{blocked, testScene("ok")}}

		session, _ := newTestSession(searcher)
		session.excluded = func(s *stash.Scene) bool { return s.HasTagNamed("skip-me") }
		session.SetMode(LibraryRandom)

		Convey("Excluded scenes never play", func() {
			for i := 0; i < 10; i++ {
				So(session.Advance(ctx), ShouldBeNil)
				So(session.Current().ID, ShouldEqual, "ok")
			}
		})
	})
}

func TestAdvanceSingleFlight(t *testing.T) {
	ctx := context.Background()

	Convey("Given an advance already in flight", t, func() {
		session, p := newTestSession(&fakeSearcher{scenes: []*stash.Scene{testScene("a")}})
		session.SetMode(LibraryRandom)
		session.advancing.Store(true)

		Convey("A reentrant advance is a no-op", func() {
			So(session.Advance(ctx), ShouldBeNil)
			So(len(p.urls), ShouldEqual, 0)
		})
	})
}

func TestAdvanceSuperseded(t *testing.T) {
	ctx := context.Background()

	Convey("Given a mode switch racing an in-flight advance", t, func() {
		before := testScene("before")
		searcher := &fakeSearcher{scenes: []*stash.Scene{testScene("stale")}}
		session, p := newTestSession(searcher)
		session.SetContextList([]*stash.Scene{before})

		So(session.Open(ctx, before), ShouldBeNil)
		<-session.Events()
		session.SetMode(LibraryRandom)
		loads := len(p.urls)

		searcher.hook = func() { session.SetMode(MarkerShuffle) }

		Convey("The superseded result is discarded", func() {
			So(session.Advance(ctx), ShouldBeNil)

			So(session.Current().ID, ShouldEqual, "before")
			So(len(p.urls), ShouldEqual, loads)
			So(len(session.events), ShouldEqual, 0)
		})
	})
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()

	Convey("Given a closed session", t, func() {
		searcher := &fakeSearcher{scenes: []*stash.Scene{testScene("a")}}
		session, p := newTestSession(searcher)
		session.SetMode(LibraryRandom)
		session.Close()

		Convey("Close is idempotent", func() {
			So(session.Close, ShouldNotPanic)
		})

		Convey("The events channel is closed for ranging subscribers", func() {
			_, open := <-session.Events()
			So(open, ShouldBeFalse)
		})

		Convey("A straggling advance cannot resurrect playback", func() {
			So(session.Advance(ctx), ShouldBeNil)

			So(session.Current(), ShouldBeNil)
			So(session.registry.Current(), ShouldBeNil)
			So(len(p.urls), ShouldEqual, 0)
		})
	})
}

func TestSessionEvents(t *testing.T) {
	ctx := context.Background()

	Convey("Given a subscribed session", t, func() {
		session, _ := newTestSession(&fakeSearcher{})
		scene := testScene("ev")

		So(session.Open(ctx, scene), ShouldBeNil)

		Convey("Playing emits a now-playing event", func() {
			event := <-session.Events()
			So(event.Target.Scene.ID, ShouldEqual, "ev")
			So(strings.Contains(event.Target.Title, "ev"), ShouldBeTrue)
		})
	})
}
