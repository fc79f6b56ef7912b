// Package ratelimiter throttles repeated attempts per subject. It backs the
// client-side guard on password and unlock verification; the vault enforces
// its own limits independently.
package ratelimiter

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AttemptLimiter applies a token bucket per subject key and evicts idle
// entries as it goes.
type AttemptLimiter struct {
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	bySubject map[string]*entry
	hits      uint64
	idleTTL   time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter refilling at perMinute attempts with the given
// burst; returns nil (an always-allow limiter) if the arguments are invalid.
func New(perMinute float64, burst int, idleTTL time.Duration) *AttemptLimiter {
	if perMinute <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &AttemptLimiter{
		limit:     rate.Limit(perMinute / 60.0),
		burst:     burst,
		bySubject: make(map[string]*entry),
		idleTTL:   idleTTL,
	}
}

// Allow reports whether one attempt may proceed for the subject at now.
func (l *AttemptLimiter) Allow(subject string, now time.Time) bool {
	if l == nil {
		return true
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.bySubject[subject]
	if !ok {
		e = &entry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.bySubject[subject] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%256 == 0 {
		l.evictLocked(now)
	}
	return allowed
}

// Reset forgets the subject, clearing any accumulated backoff. Called after
// a successful verification.
func (l *AttemptLimiter) Reset(subject string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.bySubject, strings.TrimSpace(subject))
}

func (l *AttemptLimiter) evictLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for subject, e := range l.bySubject {
		if e.lastSeen.Before(cutoff) {
			delete(l.bySubject, subject)
		}
	}
}
