package stash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/auth"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/stashsurf-cli/stashsurf/log"
	"github.com/stashsurf-cli/stashsurf/network"
)

// Endpoint returns the GraphQL endpoint of the configured media server.
func Endpoint() string {
	return strings.TrimRight(viper.GetString(key.ServerAddress), "/") + "/graphql"
}

// request executes a GraphQL query against the media server and decodes the response into out.
func request(ctx context.Context, query string, variables map[string]any, out any) error {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error(err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error(err)
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey := auth.APIKey(); apiKey != "" {
		req.Header.Set("ApiKey", apiKey)
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		log.Error(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("stash returned status code " + strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("invalid response code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error(err)
		return err
	}

	return nil
}

type findScenesResponse struct {
	Data struct {
		FindScenes struct {
			Count  int      `json:"count"`
			Scenes []*Scene `json:"scenes"`
		} `json:"findScenes"`
	} `json:"data"`
}

type findSceneResponse struct {
	Data struct {
		FindScene *Scene `json:"findScene"`
	} `json:"data"`
}

type findMarkersResponse struct {
	Data struct {
		FindSceneMarkers struct {
			Count   int       `json:"count"`
			Markers []*Marker `json:"scene_markers"`
		} `json:"findSceneMarkers"`
	} `json:"data"`
}

type allTagsResponse struct {
	Data struct {
		AllTags []*Tag `json:"allTags"`
	} `json:"data"`
}

// SceneByID returns the scene with the given id, consulting the local cache first.
func SceneByID(ctx context.Context, id string) (*Scene, error) {
	if scene := sceneCacher.Get(id); scene.IsPresent() {
		return scene.MustGet(), nil
	}

	log.Infof("fetching scene %s", id)
	var response findSceneResponse
	err := request(ctx, findSceneByIDQuery, map[string]any{"id": id}, &response)
	if err != nil {
		return nil, err
	}

	scene := response.Data.FindScene
	if scene == nil {
		return nil, fmt.Errorf("scene %s not found", id)
	}

	_ = sceneCacher.Set(id, scene)
	return scene, nil
}

// findScenes runs a findScenes query with the given filter pair.
func findScenes(ctx context.Context, filter, sceneFilter map[string]any) ([]*Scene, error) {
	var response findScenesResponse
	err := request(ctx, findScenesQuery, map[string]any{
		"filter":       filter,
		"scene_filter": sceneFilter,
	}, &response)
	if err != nil {
		return nil, err
	}

	scenes := response.Data.FindScenes.Scenes
	for _, scene := range scenes {
		_ = sceneCacher.Set(scene.ID, scene)
	}
	return scenes, nil
}

// ScenesByTags returns scenes carrying any of the given tags.
func ScenesByTags(ctx context.Context, tagIDs []string, limit int) ([]*Scene, error) {
	log.Infof("searching scenes by tags %v", tagIDs)
	return findScenes(ctx,
		map[string]any{"per_page": limit},
		map[string]any{
			"tags": map[string]any{
				"value":    tagIDs,
				"modifier": "INCLUDES",
			},
		},
	)
}

// ScenesByQuery returns scenes matching a free-text query.
func ScenesByQuery(ctx context.Context, text string, limit int) ([]*Scene, error) {
	if _, failed := failCacher.Get(searchKey("scenes", text)).Get(); failed {
		return nil, fmt.Errorf("failed to search for %s", text)
	}

	log.Infof("searching scenes for %q", text)
	scenes, err := findScenes(ctx,
		map[string]any{"q": text, "per_page": limit},
		map[string]any{},
	)
	if err != nil {
		_ = failCacher.Set(searchKey("scenes", text), true)
	}
	return scenes, err
}

// ScenesByPerformer returns scenes featuring the given performer.
// The broad variant removes pagination and sort restrictions for fallback retries.
func ScenesByPerformer(ctx context.Context, performerID string, broad bool, limit int) ([]*Scene, error) {
	filter := map[string]any{"per_page": limit, "sort": "date", "direction": "DESC"}
	if broad {
		filter = map[string]any{"per_page": -1}
	}

	log.Infof("searching scenes by performer %s (broad=%t)", performerID, broad)
	return findScenes(ctx, filter, map[string]any{
		"performers": map[string]any{
			"value":    []string{performerID},
			"modifier": "INCLUDES",
		},
	})
}

// RandomScenes returns a randomly ordered page of the whole library.
func RandomScenes(ctx context.Context, limit int) ([]*Scene, error) {
	return findScenes(ctx,
		map[string]any{"per_page": limit, "sort": "random"},
		map[string]any{},
	)
}

// findMarkers runs a findSceneMarkers query with the given filter pair.
func findMarkers(ctx context.Context, filter, markerFilter map[string]any) ([]*Marker, error) {
	var response findMarkersResponse
	err := request(ctx, findMarkersQuery, map[string]any{
		"filter":              filter,
		"scene_marker_filter": markerFilter,
	}, &response)
	if err != nil {
		return nil, err
	}
	return response.Data.FindSceneMarkers.Markers, nil
}

// MarkersByTags returns markers whose primary or secondary tags include any of the given tags.
func MarkersByTags(ctx context.Context, tagIDs []string, limit int) ([]*Marker, error) {
	log.Infof("searching markers by tags %v", tagIDs)
	return findMarkers(ctx,
		map[string]any{"per_page": limit},
		map[string]any{
			"tags": map[string]any{
				"value":    tagIDs,
				"modifier": "INCLUDES",
			},
		},
	)
}

// MarkersByQuery returns markers matching a free-text query.
func MarkersByQuery(ctx context.Context, text string, limit int) ([]*Marker, error) {
	if _, failed := failCacher.Get(searchKey("markers", text)).Get(); failed {
		return nil, fmt.Errorf("failed to search for %s", text)
	}

	log.Infof("searching markers for %q", text)
	markers, err := findMarkers(ctx,
		map[string]any{"q": text, "per_page": limit},
		map[string]any{},
	)
	if err != nil {
		_ = failCacher.Set(searchKey("markers", text), true)
	}
	return markers, err
}

// AllTags returns every tag known to the server, consulting the local cache first.
func AllTags(ctx context.Context) ([]*Tag, error) {
	if tags, ok := tagCacher.Get(allTagsCacheKey).Get(); ok && len(tags) > 0 {
		return tags, nil
	}

	log.Info("fetching tag registry")
	var response allTagsResponse
	if err := request(ctx, allTagsQuery, map[string]any{}, &response); err != nil {
		return nil, err
	}

	_ = tagCacher.Set(allTagsCacheKey, response.Data.AllTags)
	return response.Data.AllTags, nil
}

func searchKey(kind, text string) string {
	return kind + ":" + strings.ToLower(strings.TrimSpace(text))
}
