// Package player defines a unified abstraction layer for media playback engines.
package player

import (
	"fmt"

	"github.com/stashsurf-cli/stashsurf/log"
)

// Span bounds playback to a sub-segment of the active media item.
type Span struct {
	Title string
	Start float64
	// End of zero means the span is open-ended.
	End float64
}

// SpanGuard watches playback position and keeps it inside a marker span.
type SpanGuard struct {
	span   Span
	player Player
}

// NewSpanGuard creates a guard for the given span.
func NewSpanGuard(p Player, span Span) *SpanGuard {
	return &SpanGuard{span: span, player: p}
}

// Check inspects the current playback position. It returns true when the span
// end has been reached, signaling the caller to advance.
func (g *SpanGuard) Check(pos float64) (bool, error) {
	if g.span.End <= g.span.Start {
		return false, nil
	}

	if pos >= g.span.End {
		log.Infof("span end reached: %v >= %v", pos, g.span.End)
		return true, nil
	}

	// Position before the span start means the player landed on a keyframe
	// outside the segment; nudge it back in.
	if pos < g.span.Start-keyframeSlack {
		log.Infof("position %v outside span, reseeking to %v", pos, g.span.Start)
		if err := g.player.Seek(g.span.Start); err != nil {
			return false, fmt.Errorf("span reseek: %w", err)
		}
	}

	return false, nil
}

// keyframeSlack tolerates keyframe-aligned seeks landing slightly early.
const keyframeSlack = 3.0

// ApplyChapters sends chapter markers for the span to the player for visual feedback.
// Only mpv supports the chapter-list property.
func (g *SpanGuard) ApplyChapters() error {
	mpv, ok := g.player.(*MPV)
	if !ok {
		return nil
	}

	title := g.span.Title
	if title == "" {
		title = "Marker"
	}

	chapters := []map[string]interface{}{
		{"title": title, "time": g.span.Start},
	}
	if g.span.End > g.span.Start {
		chapters = append(chapters, map[string]interface{}{
			"title": "After " + title,
			"time":  g.span.End,
		})
	}

	return mpv.SetChapters(chapters)
}
