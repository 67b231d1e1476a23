// Package session models the PIN lock as an explicit state machine instead
// of a pair of loose booleans, so impossible combinations (no PIN configured
// yet locked) cannot be represented.
package session

import (
	"sync"

	"gmconsole/internal/api"
)

// State is the session lock state.
type State int

const (
	// StateNoPin means no PIN is configured; gating is off everywhere.
	StateNoPin State = iota
	// StateLocked means a PIN is configured and this session has not
	// authenticated. Non-exempt views render their lock screen.
	StateLocked
	// StateUnlocked means a PIN is configured and this session has
	// authenticated.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "no-pin"
	}
}

// Lock is the process-wide session lock. Poll reports and explicit
// lock/unlock actions are the only mutators; views read it fresh on every
// render and never cache the gate decision.
//
// Transitions honoured:
//   - a poll report may move any state to Locked, but never Locked to
//     Unlocked: unlocking requires a successful credential check;
//   - an explicit lock action transitions optimistically, before the
//     backend acknowledges;
//   - a failed auth fetch keeps the previous state, and if no report was
//     ever observed the machine stays at NoPin so an absent auth endpoint
//     does not deadlock the UI.
type Lock struct {
	mu       sync.Mutex
	state    State
	observed bool
}

// NewLock returns a lock machine in the ungated state.
func NewLock() *Lock {
	return &Lock{state: StateNoPin}
}

// Apply folds a polled auth report into the machine and returns the
// resulting state.
func (l *Lock) Apply(st api.AuthStatus) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case !st.HasPin:
		l.state = StateNoPin
	case st.Locked:
		l.state = StateLocked
	case l.observed && l.state == StateLocked:
		// The backend reports unlocked but this session has not presented a
		// credential (or locked optimistically); a poll never unlocks.
	default:
		l.state = StateUnlocked
	}
	l.observed = true
	return l.state
}

// ApplyError records a failed auth fetch. Established state is preserved;
// a session that was never observed remains ungated.
func (l *Lock) ApplyError() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LockNow performs the optimistic transition for an explicit lock action.
// It reports whether the transition happened; with no PIN configured there
// is nothing to lock.
func (l *Lock) LockNow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateNoPin {
		return false
	}
	l.state = StateLocked
	return true
}

// Unlocked records a successful credential check.
func (l *Lock) Unlocked() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateLocked {
		l.state = StateUnlocked
	}
}

// State returns the current state.
func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Gated reports whether a view with the given exemption must render its
// lock screen. Evaluate on every render; the answer changes out of band
// with the rest of the UI.
func (l *Lock) Gated(exempt bool) bool {
	if exempt {
		return false
	}
	return l.State() == StateLocked
}
