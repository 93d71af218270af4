// Package nav implements the continuous playback navigation engine: it decides,
// on every advance, which scene or marker plays next, where in it to start, and
// hands the result to the player layer.
package nav

import "fmt"

// Mode selects the advance policy. Exactly one mode is active at a time and it
// persists across repeated advances until explicitly changed by a user action.
type Mode int

const (
	// Sequential moves to the next item in the current context list, wrapping at the end.
	Sequential Mode = iota

	// RandomJump advances sequentially, then jumps to a random timestamp in the new item.
	RandomJump

	// MarkerShuffle pops the next marker from the active marker queue.
	MarkerShuffle

	// TagShuffle pops the next scene from the active tag-scoped scene queue.
	TagShuffle

	// PerformerDiscovery jumps to a random scene sharing the anchor performer.
	PerformerDiscovery

	// LibraryRandom picks uniformly from the whole active library view.
	LibraryRandom
)

var modeNames = map[Mode]string{
	Sequential:         "sequential",
	RandomJump:         "random-jump",
	MarkerShuffle:      "marker-shuffle",
	TagShuffle:         "tag-shuffle",
	PerformerDiscovery: "performer-discovery",
	LibraryRandom:      "library-random",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Modes returns every selectable navigation mode in display order.
func Modes() []Mode {
	return []Mode{Sequential, RandomJump, MarkerShuffle, TagShuffle, PerformerDiscovery, LibraryRandom}
}

// ParseMode resolves a mode from its canonical name.
func ParseMode(name string) (Mode, error) {
	for mode, n := range modeNames {
		if n == name {
			return mode, nil
		}
	}
	return Sequential, fmt.Errorf("unknown navigation mode %q", name)
}
