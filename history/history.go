// Package history provides the implementation for tracking and persisting user media consumption state.
package history

import (
	"github.com/metafates/gache"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/stash"
	"github.com/stashsurf-cli/stashsurf/where"
)

// cacher provides an abstracted, disk-backed registry for playback progress records.
var cacher = gache.New[map[string]*SavedScene](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of historical playback records from the persistent store.
func Get() (map[string]*SavedScene, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedScene), nil
	}
	return cached, nil
}

// Save persists the playback progress of a specific scene to the history registry.
func Save(scene *stash.Scene, percentage float64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := newSavedScene(scene)

	// Idempotency: Maintain the maximum observed playback percentage to prevent regressions on re-watch.
	if existing, exists := saved[record.encode()]; exists {
		if percentage < existing.WatchedPercentage {
			percentage = existing.WatchedPercentage
		}
		if record.PlayCount < existing.PlayCount {
			record.PlayCount = existing.PlayCount
		}
	}
	record.WatchedPercentage = percentage

	saved[record.encode()] = record

	return cacher.Set(saved)
}

// Remove permanently deletes a specific playback record from the history registry.
func Remove(scene *SavedScene) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, scene.encode())
	return cacher.Set(saved)
}
