package watch

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/history"
	"github.com/stashsurf-cli/stashsurf/icon"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/stashsurf-cli/stashsurf/nav"
	"github.com/stashsurf-cli/stashsurf/query"
	"github.com/stashsurf-cli/stashsurf/stash"
	"github.com/stashsurf-cli/stashsurf/util"
)

type state int

const (
	modeSelectState state = iota + 1
	filterInputState
	sceneSearchState
	playbackState
	historySelectState
	quitState
)

// stateAfterModeSelect routes to the input each mode needs before playback can start.
func stateAfterModeSelect(mode nav.Mode) state {
	switch mode {
	case nav.MarkerShuffle, nav.TagShuffle:
		return filterInputState
	case nav.LibraryRandom:
		return playbackState
	default:
		return sceneSearchState
	}
}

func (s *shell) handleModeSelectState() error {
	names := lo.Map(nav.Modes(), func(m nav.Mode, _ int) string {
		return m.String()
	})

	var answer string
	prompt := survey.Select{
		Message: fmt.Sprintf("%s Navigation mode", icon.Get(icon.Shuffle)),
		Options: names,
	}
	if err := survey.AskOne(&prompt, &answer); err != nil {
		s.newState(quitState)
		return nil
	}

	mode, err := nav.ParseMode(answer)
	if err != nil {
		return err
	}

	s.pendingMode = mode
	s.newState(stateAfterModeSelect(mode))
	return nil
}

func (s *shell) handleFilterInputState() error {
	var text string
	prompt := survey.Input{
		Message: fmt.Sprintf("%s Tags or search query", icon.Get(icon.Marker)),
		Suggest: query.SuggestMany,
	}
	if err := survey.AskOne(&prompt, &text, survey.WithValidator(survey.Required)); err != nil {
		s.previousState()
		return nil
	}

	filter := s.resolveFilter(text)
	if filter.IsZero() {
		fmt.Printf("%s No tags matched %q\n", icon.Get(icon.Fail), text)
		return nil
	}

	ctx := context.Background()
	var err error
	switch s.pendingMode {
	case nav.MarkerShuffle:
		err = s.session.EnterMarkerShuffle(ctx, filter)
	default:
		err = s.session.EnterTagShuffle(ctx, filter)
	}
	if err != nil {
		return err
	}

	if s.session.Current() == nil {
		fmt.Printf("%s Nothing matched, try another filter\n", icon.Get(icon.Fail))
		return nil
	}

	s.newState(playbackState)
	return nil
}

// resolveFilter interprets a "tags:" prefixed input as a comma-separated tag
// list matched against server tags, and anything else as a free-text query.
func (s *shell) resolveFilter(text string) nav.Filter {
	if names, ok := strings.CutPrefix(text, "tags:"); ok {
		ids := stash.ResolveTagNames(context.Background(), strings.Split(names, ","))
		return nav.Filter{TagIDs: ids}
	}

	return nav.Filter{Query: text}
}

func (s *shell) handleSceneSearchState() error {
	var text string
	prompt := survey.Input{
		Message: fmt.Sprintf("%s Search scenes", icon.Get(icon.Question)),
		Suggest: query.SuggestMany,
	}
	if err := survey.AskOne(&prompt, &text, survey.WithValidator(survey.Required)); err != nil {
		s.previousState()
		return nil
	}

	ctx := context.Background()
	erase := util.PrintErasable(fmt.Sprintf("%s Searching..", icon.Get(icon.Progress)))
	scenes, err := s.searcher.ScenesByQuery(ctx, text, viper.GetInt(key.NavQueuePageSize))
	erase()
	if err != nil {
		return err
	}

	if len(scenes) == 0 {
		fmt.Printf("%s No results for %q\n", icon.Get(icon.Fail), text)
		return nil
	}
	_ = query.Remember(text, 1)

	var answer string
	titles := lo.Map(scenes, func(scene *stash.Scene, _ int) string {
		return scene.String()
	})
	selectPrompt := survey.Select{
		Message: fmt.Sprintf("%s Start with", icon.Get(icon.Play)),
		Options: titles,
	}
	if err := survey.AskOne(&selectPrompt, &answer); err != nil {
		return nil
	}

	chosen, _ := lo.Find(scenes, func(scene *stash.Scene) bool {
		return scene.String() == answer
	})

	s.session.SetContextList(scenes)
	s.session.SetMode(s.pendingMode)
	if err := s.session.Open(ctx, chosen); err != nil {
		return err
	}

	s.newState(playbackState)
	return nil
}

func (s *shell) handlePlaybackState() error {
	ctx := context.Background()

	if s.session.Current() == nil && s.session.Mode() == nav.LibraryRandom {
		s.session.SetMode(nav.LibraryRandom)
		if err := s.session.Advance(ctx); err != nil {
			return err
		}
	}

	const (
		actionNext   = "next"
		actionPause  = "pause / resume"
		actionMute   = "mute / unmute"
		actionMode   = "switch mode"
		actionSearch = "new search"
		actionQuit   = "quit"
	)

	var answer string
	prompt := survey.Select{
		Message: fmt.Sprintf("%s %s", icon.Get(icon.Play), s.session.Mode()),
		Options: []string{actionNext, actionPause, actionMute, actionMode, actionSearch, actionQuit},
	}
	if err := survey.AskOne(&prompt, &answer); err != nil {
		s.newState(quitState)
		return nil
	}

	switch answer {
	case actionNext:
		return s.session.Advance(ctx)
	case actionPause:
		if p := s.registry.Current(); p != nil {
			return p.TogglePause()
		}
	case actionMute:
		if p := s.registry.Current(); p != nil {
			s.muted = !s.muted
			return p.SetMuted(s.muted)
		}
	case actionMode:
		s.newState(modeSelectState)
	case actionSearch:
		s.newState(sceneSearchState)
	case actionQuit:
		s.newState(quitState)
	}

	return nil
}

func (s *shell) handleHistorySelectState() error {
	saved, err := history.Get()
	if err != nil {
		return err
	}

	records := lo.Values(saved)
	if len(records) == 0 {
		fmt.Printf("%s History is empty\n", icon.Get(icon.Fail))
		s.setState(modeSelectState)
		return nil
	}

	var answer string
	titles := lo.Map(records, func(r *history.SavedScene, _ int) string {
		return r.String()
	})
	prompt := survey.Select{
		Message: fmt.Sprintf("%s Continue watching", icon.Get(icon.Play)),
		Options: titles,
	}
	if err := survey.AskOne(&prompt, &answer); err != nil {
		s.newState(quitState)
		return nil
	}

	chosen, _ := lo.Find(records, func(r *history.SavedScene) bool {
		return r.String() == answer
	})

	ctx := context.Background()
	erase := util.PrintErasable(fmt.Sprintf("%s Fetching scene..", icon.Get(icon.Progress)))
	scene, err := s.searcher.SceneByID(ctx, chosen.ID)
	erase()
	if err != nil {
		return err
	}

	s.pendingMode = nav.Sequential
	s.session.SetContextList([]*stash.Scene{scene})
	s.session.SetMode(nav.Sequential)
	if err := s.session.Open(ctx, scene); err != nil {
		return err
	}

	s.newState(playbackState)
	return nil
}
