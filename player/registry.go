// Package player defines a unified abstraction layer for media playback engines.
package player

import (
	"sync"

	"github.com/stashsurf-cli/stashsurf/log"
)

// Registry owns the single active player slot plus any registered preview
// players. At most one player is ever considered "the" active one; all writers
// serialize through Register/Clear so no component holds a stale reference.
type Registry struct {
	mu       sync.Mutex
	active   Player
	previews []Player
}

// NewRegistry creates an empty registry. The playback session owns it and
// passes it to collaborators; nothing here is process-global.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register makes the given player the active one, replacing (and closing) any
// previous active player. Registering also pre-empts preview players so no
// audio overlaps the new full playback session.
func (r *Registry) Register(p Player) {
	r.mu.Lock()
	previous := r.active
	r.active = p
	r.mu.Unlock()

	r.PauseAllExcept(p)

	if previous != nil && previous != p {
		previous.StopIPCTicker()
		if err := previous.Close(); err != nil {
			log.Warnf("closing replaced player: %v", err)
		}
	}
}

// RegisterPreview tracks a secondary player so the pre-emption broadcast can
// reach it. Preview players never become the active one through this call.
func (r *Registry) RegisterPreview(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previews = append(r.previews, p)
}

// Current returns the active player, or nil when none is registered.
func (r *Registry) Current() Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// PauseAllExcept pauses and mutes every known player other than the given one.
// This is the pre-emption broadcast guaranteeing no audio overlap.
func (r *Registry) PauseAllExcept(except Player) {
	r.mu.Lock()
	players := make([]Player, 0, len(r.previews)+1)
	if r.active != nil && r.active != except {
		players = append(players, r.active)
	}
	for _, p := range r.previews {
		if p != except {
			players = append(players, p)
		}
	}
	r.mu.Unlock()

	for _, p := range players {
		if err := p.SetPaused(true); err != nil {
			log.Debugf("pre-emption pause: %v", err)
		}
		if err := p.SetMuted(true); err != nil {
			log.Debugf("pre-emption mute: %v", err)
		}
	}
}

// StopAll pauses every known player, active and preview alike.
func (r *Registry) StopAll() {
	r.PauseAllExcept(nil)
}

// Clear pauses and releases the active player before dropping the reference.
func (r *Registry) Clear() {
	r.mu.Lock()
	active := r.active
	r.active = nil
	r.mu.Unlock()

	if active == nil {
		return
	}

	active.StopIPCTicker()
	if err := active.SetPaused(true); err != nil {
		log.Debugf("pausing player on clear: %v", err)
	}
	if err := active.Close(); err != nil {
		log.Warnf("closing player on clear: %v", err)
	}
}
