package nav

import (
	"github.com/samber/mo"
	"github.com/stashsurf-cli/stashsurf/player"
	"github.com/stashsurf-cli/stashsurf/stash"
)

// Target is the resolved outcome of one navigation step: a whole scene, or a
// marker span within one. It is resolved once per advance and consumed exactly
// once by the URL synthesizer / seek orchestrator pair.
type Target struct {
	Scene  *stash.Scene
	Start  mo.Option[float64]
	End    mo.Option[float64]
	Marker bool
	Title  string
}

// SceneTarget wraps a whole scene as a playback target.
func SceneTarget(scene *stash.Scene) Target {
	return Target{
		Scene: scene,
		Title: scene.String(),
	}
}

// MarkerTarget wraps a marker sub-segment as a playback target.
func MarkerTarget(marker *stash.Marker) Target {
	return Target{
		Scene:  marker.Scene,
		Start:  mo.Some(marker.Seconds),
		End:    marker.End(),
		Marker: true,
		Title:  marker.String(),
	}
}

// Span returns the player span for a bounded marker target.
func (t Target) Span() mo.Option[player.Span] {
	end, ok := t.End.Get()
	if !ok {
		return mo.None[player.Span]()
	}
	return mo.Some(player.Span{
		Title: t.Title,
		Start: t.Start.OrElse(0),
		End:   end,
	})
}
