package limiter

import (
	"sync"
	"time"
)

// LoginLimiter tracks consecutive failed logins per identifier inside a
// sliding window and locks the identifier once the threshold is reached.
// A single mutex makes check-then-act atomic per identifier.
type LoginLimiter struct {
	mu          sync.Mutex
	failures    map[string][]time.Time
	maxFailures int
	window      time.Duration
	lockout     time.Duration
	stopCh      chan struct{}
}

func NewLoginLimiter(maxFailures int, window, lockout time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		failures:    make(map[string][]time.Time),
		maxFailures: maxFailures,
		window:      window,
		lockout:     lockout,
		stopCh:      make(chan struct{}),
	}

	go l.cleanup()

	return l
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for key, timestamps := range l.failures {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > l.window+l.lockout {
					delete(l.failures, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func (l *LoginLimiter) Stop() {
	close(l.stopCh)
}

// Check reports whether key is currently locked out and, if so, for how much
// longer. A lockout whose deadline has passed clears the recorded failures.
func (l *LoginLimiter) Check(key string) (time.Duration, bool) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(key, now)
	if len(valid) < l.maxFailures {
		return 0, false
	}

	latest := valid[len(valid)-1]
	remaining := l.lockout - now.Sub(latest)
	if remaining > 0 {
		return remaining, true
	}

	delete(l.failures, key)
	return 0, false
}

// RecordFailure notes a failed attempt for key.
func (l *LoginLimiter) RecordFailure(key string) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[key] = append(l.prune(key, now), now)
}

// Clear wipes the failure history for key. Called on successful login.
func (l *LoginLimiter) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failures, key)
}

// prune drops failures that fell out of the window. Caller must hold mu.
func (l *LoginLimiter) prune(key string, now time.Time) []time.Time {
	timestamps := l.failures[key]

	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < l.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) == 0 {
		delete(l.failures, key)
		return nil
	}

	l.failures[key] = valid
	return valid
}
