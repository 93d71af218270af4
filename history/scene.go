package history

import (
	"fmt"

	"github.com/stashsurf-cli/stashsurf/stash"
)

// SavedScene represents a single playback entry preserved in the user's history.
type SavedScene struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	StreamURL         string  `json:"stream_url"`
	PlayCount         int     `json:"play_count"`
	WatchedPercentage float64 `json:"watched_percentage"`
}

func (s *SavedScene) encode() string {
	return s.ID
}

func (s *SavedScene) String() string {
	return fmt.Sprintf("%s : %d%%", s.Title, int(s.WatchedPercentage))
}

func newSavedScene(scene *stash.Scene) *SavedScene {
	return &SavedScene{
		ID:        scene.ID,
		Title:     scene.String(),
		StreamURL: scene.Paths.Stream,
		PlayCount: scene.PlayCount,
	}
}
