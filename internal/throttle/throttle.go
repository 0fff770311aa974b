// Package throttle tracks failed logins per client and locks a client out
// after too many consecutive failures.
package throttle

import (
	"sync"
	"time"
)

const (
	DefaultThreshold    = 5
	DefaultLockDuration = 10 * time.Minute
)

// State is the position of a client in the lockout state machine.
type State int

const (
	StateClear State = iota
	StateAccumulating
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "clear"
	case StateAccumulating:
		return "accumulating"
	case StateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

type attempt struct {
	count       int
	lockedUntil time.Time
}

// LoginThrottle holds one attempt record per client id. A missing record is
// the Clear state.
type LoginThrottle struct {
	mu        sync.Mutex
	attempts  map[string]*attempt
	threshold int
	lockFor   time.Duration
	now       func() time.Time
}

// Option configures a LoginThrottle.
type Option func(*LoginThrottle)

// WithThreshold sets the failure count that triggers a lock.
func WithThreshold(n int) Option {
	return func(t *LoginThrottle) {
		if n > 0 {
			t.threshold = n
		}
	}
}

// WithLockDuration sets how long a lock lasts.
func WithLockDuration(d time.Duration) Option {
	return func(t *LoginThrottle) {
		if d > 0 {
			t.lockFor = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *LoginThrottle) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a throttle with the default threshold and lock duration.
func New(opts ...Option) *LoginThrottle {
	t := &LoginThrottle{
		attempts:  make(map[string]*attempt),
		threshold: DefaultThreshold,
		lockFor:   DefaultLockDuration,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordFailure counts a failed login. It reports whether the client is now
// locked and until when.
func (t *LoginThrottle) RecordFailure(id string) (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	a, ok := t.attempts[id]
	if !ok || t.expired(a, now) {
		a = &attempt{}
		t.attempts[id] = a
	}
	if !a.lockedUntil.IsZero() {
		return true, a.lockedUntil
	}

	a.count++
	if a.count >= t.threshold {
		a.lockedUntil = now.Add(t.lockFor)
		return true, a.lockedUntil
	}
	return false, time.Time{}
}

// RecordSuccess returns the client to the Clear state.
func (t *LoginThrottle) RecordSuccess(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, id)
}

// IsLocked reports whether the client is locked. An expired lock is removed
// on the first check after it runs out.
func (t *LoginThrottle) IsLocked(id string) (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[id]
	if !ok || a.lockedUntil.IsZero() {
		return false, time.Time{}
	}
	if t.expired(a, t.now()) {
		delete(t.attempts, id)
		return false, time.Time{}
	}
	return true, a.lockedUntil
}

// State returns the current state of a client without side effects.
func (t *LoginThrottle) State(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[id]
	switch {
	case !ok:
		return StateClear
	case a.lockedUntil.IsZero():
		return StateAccumulating
	case t.expired(a, t.now()):
		return StateClear
	default:
		return StateLocked
	}
}

// Failures returns the failure count of a client.
func (t *LoginThrottle) Failures(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.attempts[id]; ok {
		return a.count
	}
	return 0
}

// Prune drops every expired lock and returns how many were removed.
func (t *LoginThrottle) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for id, a := range t.attempts {
		if t.expired(a, now) {
			delete(t.attempts, id)
			removed++
		}
	}
	return removed
}

// expired reports whether a is a lock whose time has passed.
func (t *LoginThrottle) expired(a *attempt, now time.Time) bool {
	return !a.lockedUntil.IsZero() && !now.Before(a.lockedUntil)
}
