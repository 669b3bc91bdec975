// Package limiter implements the login-attempt lockout used by authentication.
package limiter

import (
	"sync"
	"time"
)

// LoginLimiter tracks failed login attempts per email and locks an email out
// once the failure threshold is reached inside the sliding window. State is
// process-local and not shared across instances; it resets on restart.
type LoginLimiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	failures map[string][]time.Time
	now      func() time.Time
}

// NewLoginLimiter returns a limiter allowing max-1 failures per window before
// locking out.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		max:      max,
		window:   window,
		failures: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Check reports whether the email is currently locked out, and if so for how
// much longer.
func (l *LoginLimiter) Check(email string) (locked bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(email)
	if len(recent) < l.max {
		return false, 0
	}

	// Locked until the oldest failure that still counts ages out.
	oldest := recent[len(recent)-l.max]
	return true, oldest.Add(l.window).Sub(l.now())
}

// RecordFailure registers a failed attempt for the email, creating the entry
// on first failure.
func (l *LoginLimiter) RecordFailure(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[email] = append(l.prune(email), l.now())
}

// Reset clears the failure counter after a successful authentication.
func (l *LoginLimiter) Reset(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failures, email)
}

// Sweep drops entries whose failures have all aged out of the window.
// Called periodically by the maintenance scheduler.
func (l *LoginLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for email := range l.failures {
		if len(l.prune(email)) == 0 {
			delete(l.failures, email)
		}
	}
}

// prune drops failures outside the window. Caller must hold the lock.
func (l *LoginLimiter) prune(email string) []time.Time {
	cutoff := l.now().Add(-l.window)
	all := l.failures[email]
	kept := all[:0]
	for _, ts := range all {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 && len(all) > 0 {
		delete(l.failures, email)
		return nil
	}
	l.failures[email] = kept
	return kept
}
