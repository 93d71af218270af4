// Package watch implements the interactive continuous-playback shell. It owns
// the navigation session and the player registry for the lifetime of one run.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/mo"
	"github.com/stashsurf-cli/stashsurf/nav"
	"github.com/stashsurf-cli/stashsurf/player"
	"github.com/stashsurf-cli/stashsurf/stash"
	"github.com/stashsurf-cli/stashsurf/style"
	"github.com/stashsurf-cli/stashsurf/util"
)

type Options struct {
	// Mode preselects a navigation mode, skipping the mode menu.
	Mode mo.Option[nav.Mode]

	// Continue resumes from the most recent history entry.
	Continue bool
}

type shell struct {
	session  *nav.Session
	registry *player.Registry
	searcher *stash.Service

	state         state
	statesHistory util.Stack[state]

	pendingMode nav.Mode
	muted       bool
	guardCancel context.CancelFunc

	listener       *player.EventListener
	listenerSocket string
}

func newShell() *shell {
	registry := player.NewRegistry()
	searcher := stash.NewService()

	return &shell{
		session:       nav.NewSession(searcher, registry),
		registry:      registry,
		searcher:      searcher,
		statesHistory: util.Stack[state]{},
	}
}

func (s *shell) previousState() {
	if s.statesHistory.Len() > 0 {
		s.setState(s.statesHistory.Pop())
	}
}

func (s *shell) setState(st state) {
	s.state = st
}

func (s *shell) newState(st state) {
	if s.state == st {
		return
	}

	s.statesHistory.Push(s.state)
	s.setState(st)
}

// Run drives the interactive shell until the user quits.
func Run(options *Options) error {
	s := newShell()
	defer s.teardown()

	s.state = modeSelectState
	if options.Continue {
		s.state = historySelectState
	}
	if mode, ok := options.Mode.Get(); ok {
		s.pendingMode = mode
		s.state = stateAfterModeSelect(mode)
	}

	go s.watchEvents()

	for {
		if err := s.handleState(); err != nil {
			return err
		}
	}
}

func (s *shell) handleState() error {
	switch s.state {
	case modeSelectState:
		return s.handleModeSelectState()
	case filterInputState:
		return s.handleFilterInputState()
	case sceneSearchState:
		return s.handleSceneSearchState()
	case playbackState:
		return s.handlePlaybackState()
	case historySelectState:
		return s.handleHistorySelectState()
	case quitState:
		s.teardown()
		os.Exit(0)
	}

	return nil
}

// watchEvents reacts to now-playing notifications: it prints the banner, arms
// the span guard for bounded marker targets and hooks end-of-item auto-advance.
func (s *shell) watchEvents() {
	for event := range s.session.Events() {
		fmt.Println(style.Title(fmt.Sprintf("%s | %s", event.Mode, event.Target.Title)))
		s.armSpanGuard(event.Target)
		s.armAutoAdvance()
	}
}

// armAutoAdvance subscribes to mpv property events once per player instance
// and advances the session when the current item plays out.
func (s *shell) armAutoAdvance() {
	p := s.registry.Current()
	if p == nil || p.Socket() == "" {
		return
	}
	if s.listener != nil && s.listenerSocket == p.Socket() {
		return
	}
	if s.listener != nil {
		s.listener.Stop()
	}

	listener := player.NewEventListener(p.Socket(), func(property string, data interface{}) {
		if property != "eof-reached" {
			return
		}
		if reached, ok := data.(bool); ok && reached {
			_ = s.session.Advance(context.Background())
		}
	})
	if err := listener.Start(); err != nil {
		return
	}

	s.listener = listener
	s.listenerSocket = p.Socket()
}

// armSpanGuard replaces the active guard loop. For a bounded marker target it
// polls playback position and advances the session when the span completes.
func (s *shell) armSpanGuard(target nav.Target) {
	if s.guardCancel != nil {
		s.guardCancel()
		s.guardCancel = nil
	}

	span, ok := target.Span().Get()
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.guardCancel = cancel

	p := s.registry.Current()
	if p == nil {
		return
	}

	guard := player.NewSpanGuard(p, span)
	_ = guard.ApplyChapters()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pos, err := p.GetTimePos()
				if err != nil {
					continue
				}

				done, err := guard.Check(pos)
				if err != nil {
					continue
				}
				if done {
					_ = s.session.Advance(ctx)
					return
				}
			}
		}
	}()
}

func (s *shell) teardown() {
	if s.guardCancel != nil {
		s.guardCancel()
		s.guardCancel = nil
	}
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	s.session.Close()
}
