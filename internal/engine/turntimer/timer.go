// Package turntimer provides the per-question countdown.
//
// A timeout callback can race a synchronous answer submission. The
// wall-clock implementation guards every expiry with a generation
// token: Arm and Cancel both bump the generation, and an expiry whose
// captured generation no longer matches is dropped. That check runs
// under the timer's own lock, not the caller's, so an expiry can pass
// it and then lose the lock race against a Cancel; callers resolving
// game state must validate staleness again under their own lock
// inside the fire callback.
package turntimer

import (
	"sync"
	"time"
)

// Timer is a single re-armable countdown
type Timer interface {
	// Arm schedules fire to run after d, replacing any pending
	// countdown
	Arm(d time.Duration, fire func())

	// Cancel discards any pending countdown
	Cancel()
}

// Factory creates a timer per battle session
type Factory func() Timer

// ResolveSeconds computes a question's countdown from its base time
// limit, the encounter's time multiplier, and the equipped item's
// timer multiplier
func ResolveSeconds(baseSeconds int, encounterMult, itemMult float64) float64 {
	return float64(baseSeconds) * encounterMult * itemMult
}

// Duration converts resolved seconds to a time.Duration
func Duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Wall is the wall-clock Timer implementation
type Wall struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewWall creates a wall-clock timer
func NewWall() *Wall {
	return &Wall{}
}

// NewWallFactory returns a Factory producing wall-clock timers
func NewWallFactory() Factory {
	return func() Timer { return NewWall() }
}

// Arm schedules fire to run after d. Any previously armed countdown is
// invalidated even if its underlying timer has already expired.
func (w *Wall) Arm(d time.Duration, fire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	gen := w.gen

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(d, func() {
		w.mu.Lock()
		live := w.gen == gen
		w.mu.Unlock()
		if live {
			fire()
		}
	})
}

// Cancel invalidates any pending countdown
func (w *Wall) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Manual is a Timer for tests: it never fires on its own, the test
// triggers expiry explicitly with Fire
type Manual struct {
	mu       sync.Mutex
	armed    bool
	fire     func()
	duration time.Duration
}

// NewManual creates a manual timer
func NewManual() *Manual {
	return &Manual{}
}

// Arm records the countdown without scheduling anything
func (m *Manual) Arm(d time.Duration, fire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
	m.fire = fire
	m.duration = d
}

// Cancel disarms the timer
func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = false
	m.fire = nil
}

// Fire simulates expiry of the armed countdown; a disarmed timer does
// nothing, matching a stale wall-clock fire being dropped
func (m *Manual) Fire() {
	m.mu.Lock()
	fire := m.fire
	armed := m.armed
	m.armed = false
	m.fire = nil
	m.mu.Unlock()

	if armed && fire != nil {
		fire()
	}
}

// Armed reports whether a countdown is pending
func (m *Manual) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Duration returns the most recently armed countdown length
func (m *Manual) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}
