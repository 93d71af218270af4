// Package player defines a unified abstraction layer for media playback engines.
package player

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/stashsurf-cli/stashsurf/log"
)

// attemptDelays spaces out whole-seek retries while the swapped item becomes ready.
var attemptDelays = []time.Duration{
	1000 * time.Millisecond,
	1750 * time.Millisecond,
	2500 * time.Millisecond,
}

// sleep is swapped in tests to avoid real delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// seekOnce drives one positioning attempt: an exact seek first, a tolerant
// retry on failure, then a resume if playback is not already running.
func seekOnce(p Player, target float64) error {
	if err := p.SeekExact(target); err != nil {
		log.Debugf("exact seek to %v rejected: %v", target, err)
		if err := p.Seek(target); err != nil {
			return err
		}
	}

	paused, err := p.GetPausedStatus()
	if err == nil && paused {
		if err := p.SetPaused(false); err != nil {
			log.Debugf("resume after seek: %v", err)
		}
	}

	return nil
}

// SeekWithRetry positions the player at target seconds, tolerating an item
// that is not yet ready after a swap. It retries the whole operation with
// increasing delay; the final attempt is forced regardless of readiness since
// some backends accept seeks on unready items. Failures are logged and never
// propagate past this orchestrator: a failed seek is terminal only for the
// one attempt, and playback resumes from wherever it landed.
func SeekWithRetry(ctx context.Context, p Player, target float64) {
	attempts := viper.GetInt(key.NavSeekRetries)
	if attempts <= 0 {
		attempts = len(attemptDelays)
	}

	for attempt := 0; attempt < attempts; attempt++ {
		ready, err := p.HasActivePlayback()
		if err != nil {
			log.Debugf("readiness probe failed: %v", err)
		}

		final := attempt == attempts-1
		if ready || final {
			if err := seekOnce(p, target); err == nil {
				log.Infof("seek to %v succeeded on attempt %d", target, attempt+1)
				return
			} else if final {
				log.Warnf("seek to %v abandoned after %d attempts: %v", target, attempts, err)
				return
			} else {
				log.Warnf("seek to %v failed on attempt %d: %v", target, attempt+1, err)
			}
		}

		delay := attemptDelays[len(attemptDelays)-1]
		if attempt < len(attemptDelays) {
			delay = attemptDelays[attempt]
		}
		if err := sleep(ctx, delay); err != nil {
			log.Infof("seek to %v cancelled: %v", target, err)
			return
		}
	}
}
