// Package stash provides a client for the Stash media server GraphQL API.
package stash

import (
	"fmt"

	"github.com/samber/mo"
)

// Tag is a category label attached to scenes and markers.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Performer identifies a person appearing in a scene.
type Performer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Favorite bool   `json:"favorite"`
}

// ScenePaths holds the raw URL strings the server exposes for a scene.
type ScenePaths struct {
	Stream     string `json:"stream"`
	Preview    string `json:"preview"`
	Screenshot string `json:"screenshot"`
}

// Scene represents a media entity on the server.
// Immutable once fetched except for the play counter.
type Scene struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Rating     int          `json:"rating100"`
	PlayCount  int          `json:"play_count"`
	Paths      ScenePaths   `json:"paths"`
	Performers []*Performer `json:"performers"`
	Tags       []*Tag       `json:"tags"`

	Files []struct {
		Duration float64 `json:"duration"`
	} `json:"files"`
}

// EntityID returns the scene's opaque identifier.
func (s *Scene) EntityID() string {
	return s.ID
}

func (s *Scene) String() string {
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("scene %s", s.ID)
}

// Duration returns the scene duration in seconds when the server knows it.
// It is absent until the primary file has been scanned.
func (s *Scene) Duration() mo.Option[float64] {
	if len(s.Files) == 0 || s.Files[0].Duration <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(s.Files[0].Duration)
}

// AnchorPerformer selects the performer used to anchor discovery jumps,
// preferring a favorite performer over the first listed one.
func (s *Scene) AnchorPerformer() mo.Option[*Performer] {
	if len(s.Performers) == 0 {
		return mo.None[*Performer]()
	}
	for _, p := range s.Performers {
		if p.Favorite {
			return mo.Some(p)
		}
	}
	return mo.Some(s.Performers[0])
}

// HasTagNamed reports whether the scene carries a tag with the given name.
func (s *Scene) HasTagNamed(names ...string) bool {
	for _, t := range s.Tags {
		for _, n := range names {
			if t.Name == n {
				return true
			}
		}
	}
	return false
}

// Marker is a named sub-segment within a scene, not a separate media asset.
type Marker struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Seconds    float64 `json:"seconds"`
	EndSeconds float64 `json:"end_seconds"`
	PrimaryTag *Tag    `json:"primary_tag"`
	Tags       []*Tag  `json:"tags"`
	Scene      *Scene  `json:"scene"`
}

// EntityID returns the marker's opaque identifier.
func (m *Marker) EntityID() string {
	return m.ID
}

func (m *Marker) String() string {
	if m.Title != "" {
		return m.Title
	}
	if m.PrimaryTag != nil {
		return m.PrimaryTag.Name
	}
	return fmt.Sprintf("marker %s", m.ID)
}

// End returns the marker's end position when one is set.
func (m *Marker) End() mo.Option[float64] {
	if m.EndSeconds <= m.Seconds {
		return mo.None[float64]()
	}
	return mo.Some(m.EndSeconds)
}
