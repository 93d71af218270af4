package player

import "sync"

// fakePlayer is a scriptable in-memory Player used across the package tests.
type fakePlayer struct {
	mu sync.Mutex

	position float64
	duration float64
	paused   bool
	muted    bool
	ready    bool
	closed   bool

	exactSeekErr error
	seekErr      error

	exactSeeks int
	seeks      int

	exited chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{ready: true, exited: make(chan struct{})}
}

func (f *fakePlayer) Play(url, title string, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = 0
	f.paused = false
	return nil
}

func (f *fakePlayer) TogglePause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = !f.paused
	return nil
}

func (f *fakePlayer) SetPaused(paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
	return nil
}

func (f *fakePlayer) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
	return nil
}

func (f *fakePlayer) GetTimePos() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakePlayer) GetDuration() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, nil
}

func (f *fakePlayer) GetPercentWatched() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duration <= 0 {
		return 0, nil
	}
	return f.position / f.duration * 100, nil
}

func (f *fakePlayer) GetPausedStatus() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused, nil
}

func (f *fakePlayer) HasActivePlayback() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready, nil
}

func (f *fakePlayer) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks++
	if f.seekErr != nil {
		return f.seekErr
	}
	f.position = seconds
	return nil
}

func (f *fakePlayer) SeekExact(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exactSeeks++
	if f.exactSeekErr != nil {
		return f.exactSeekErr
	}
	f.position = seconds
	return nil
}

func (f *fakePlayer) IsRunning() bool { return !f.closed }

func (f *fakePlayer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePlayer) Socket() string { return "fake" }

func (f *fakePlayer) StartIPCTicker(callback func(timePos int, duration int)) {}
func (f *fakePlayer) StopIPCTicker()                                          {}

func (f *fakePlayer) Wait() <-chan struct{} { return f.exited }
