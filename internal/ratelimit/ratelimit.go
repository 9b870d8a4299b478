// Package ratelimit provides a per-key token bucket used to throttle
// login attempts by client IP.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

// KeyLimiter applies an independent token bucket per string key and evicts
// buckets that have been idle longer than the TTL.
type KeyLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter creates a per-key limiter allowing a sustained perSecond rate
// with the given burst. Returns nil for non-positive arguments; a nil limiter
// allows everything, so callers can disable limiting through configuration.
func NewKeyLimiter(perSecond float64, burst int, idleTTL time.Duration) *KeyLimiter {
	if perSecond <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &KeyLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether one token can be consumed for the key right now.
// Empty keys are never limited.
func (l *KeyLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *KeyLimiter) allowAt(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweepLocked(now)
		l.lastSweep = now
	}

	return b.limiter.AllowN(now, 1)
}

// sweepLocked drops buckets idle past the TTL. Caller holds the mutex.
func (l *KeyLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
