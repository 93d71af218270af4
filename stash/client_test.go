package stash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func serveGraphQL(t *testing.T, handler func(query string, variables map[string]any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(handler(body.Query, body.Variables))
	}))
}

func TestScenesByTags(t *testing.T) {
	Convey("Given a server with two scenes for a tag", t, func() {
		srv := serveGraphQL(t, func(query string, variables map[string]any) any {
			return map[string]any{
				"data": map[string]any{
					"findScenes": map[string]any{
						"count": 2,
						"scenes": []map[string]any{
							{"id": "1", "title": "first"},
							{"id": "2", "title": "second"},
						},
					},
				},
			}
		})
		defer srv.Close()
		viper.Set(key.ServerAddress, srv.URL)

		Convey("When searching scenes by tag", func() {
			scenes, err := ScenesByTags(context.Background(), []string{"7"}, 100)

			Convey("Then both scenes are returned", func() {
				So(err, ShouldBeNil)
				So(len(scenes), ShouldEqual, 2)
				So(scenes[0].ID, ShouldEqual, "1")
				So(scenes[1].Title, ShouldEqual, "second")
			})
		})
	})
}

func TestSceneByIDCaching(t *testing.T) {
	Convey("Given a server that counts scene lookups", t, func() {
		calls := 0
		srv := serveGraphQL(t, func(query string, variables map[string]any) any {
			calls++
			return map[string]any{
				"data": map[string]any{
					"findScene": map[string]any{"id": "42", "title": "cached"},
				},
			}
		})
		defer srv.Close()
		viper.Set(key.ServerAddress, srv.URL)

		Convey("When fetching the same scene twice", func() {
			first, err := SceneByID(context.Background(), "42")
			So(err, ShouldBeNil)
			second, err := SceneByID(context.Background(), "42")
			So(err, ShouldBeNil)

			Convey("Then the second lookup is served from cache", func() {
				So(calls, ShouldEqual, 1)
				So(first.Title, ShouldEqual, second.Title)
			})
		})
	})
}

func TestFindClosestTag(t *testing.T) {
	Convey("Given a server with a tag registry", t, func() {
		srv := serveGraphQL(t, func(query string, variables map[string]any) any {
			return map[string]any{
				"data": map[string]any{
					"allTags": []map[string]any{
						{"id": "1", "name": "Outdoors"},
						{"id": "2", "name": "Interview"},
					},
				},
			}
		})
		defer srv.Close()
		viper.Set(key.ServerAddress, srv.URL)
		_ = tagCacher.Delete(allTagsCacheKey)

		Convey("An exact name matches case-insensitively", func() {
			tag, err := FindClosestTag(context.Background(), "interview")
			So(err, ShouldBeNil)
			So(tag.ID, ShouldEqual, "2")
		})

		Convey("A misspelled name resolves to the nearest tag", func() {
			tag, err := FindClosestTag(context.Background(), "outdors")
			So(err, ShouldBeNil)
			So(tag.ID, ShouldEqual, "1")
		})
	})
}

func TestSceneAnchorPerformer(t *testing.T) {
	Convey("Given a scene with performers", t, func() {
		scene := &Scene{
			Performers: []*Performer{
				{ID: "a", Name: "First"},
				{ID: "b", Name: "Second", Favorite: true},
			},
		}

		Convey("The favorite performer anchors discovery", func() {
			anchor := scene.AnchorPerformer()
			So(anchor.IsPresent(), ShouldBeTrue)
			So(anchor.MustGet().ID, ShouldEqual, "b")
		})

		Convey("Without a favorite the first performer anchors", func() {
			scene.Performers[1].Favorite = false
			So(scene.AnchorPerformer().MustGet().ID, ShouldEqual, "a")
		})

		Convey("Without performers there is no anchor", func() {
			scene.Performers = nil
			So(scene.AnchorPerformer().IsAbsent(), ShouldBeTrue)
		})
	})
}
