package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles login attempts per client IP + username pair.
// Entries are pruned lazily on access; no background goroutine.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	lockedUntil map[string]time.Time

	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

func NewRateLimiter(maxAttempts int, window, lockout time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}
	return &RateLimiter{
		attempts:    make(map[string][]time.Time),
		lockedUntil: make(map[string]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
	}
}

// Allow reports whether another login attempt is permitted, and if not, how
// long until the lockout expires.
func (rl *RateLimiter) Allow(clientIP, username string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientIP + "|" + username
	now := time.Now()

	if until, locked := rl.lockedUntil[key]; locked {
		if now.Before(until) {
			return false, until.Sub(now).Round(time.Second)
		}
		delete(rl.lockedUntil, key)
		delete(rl.attempts, key)
	}
	return true, 0
}

// RecordFailure notes a failed attempt and locks the pair out once the
// window fills up.
func (rl *RateLimiter) RecordFailure(clientIP, username string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientIP + "|" + username
	now := time.Now()

	recent := rl.attempts[key][:0]
	for _, t := range rl.attempts[key] {
		if now.Sub(t) < rl.window {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	rl.attempts[key] = recent

	if len(recent) >= rl.maxAttempts {
		rl.lockedUntil[key] = now.Add(rl.lockout)
	}
}

// RecordSuccess clears tracking for the pair after a successful login.
func (rl *RateLimiter) RecordSuccess(clientIP, username string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientIP + "|" + username
	delete(rl.attempts, key)
	delete(rl.lockedUntil, key)
}
