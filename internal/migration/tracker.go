package migration

import (
	"errors"
	"sync"
)

// ErrMigrationInFlight is returned when a bot is already being edited by another run.
var ErrMigrationInFlight = errors.New("another operation on this bot is in progress")

// Tracker records which bots are owned by a running orchestrator.
// List refreshes consult it so they never overwrite a bot mid-run.
type Tracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]struct{})}
}

// Begin claims botID. The returned release func must be called exactly once.
func (t *Tracker) Begin(botID string) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.active[botID]; busy {
		return nil, ErrMigrationInFlight
	}
	t.active[botID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, botID)
			t.mu.Unlock()
		})
	}, nil
}

// WhenIdle runs fn only if no run is active, and holds the tracker while fn runs
// so no run can begin until it returns. fn must not call back into the tracker.
func (t *Tracker) WhenIdle(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.active) > 0 {
		return false
	}
	fn()
	return true
}

// Active returns how many runs are in progress.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
