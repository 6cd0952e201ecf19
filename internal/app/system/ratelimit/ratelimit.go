// Package ratelimit provides a small in-memory sliding-window limiter for
// credential endpoints. State is per-process; a horizontally scaled
// deployment gets per-instance limits, which is acceptable for brute-force
// damping.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter tracks request timestamps per key inside a sliding window.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
}

// New creates a Limiter allowing max events per window per key. A janitor
// goroutine evicts expired keys for the life of the process.
func New(max int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
	}
	go l.cleanupLoop()
	return l
}

// Allow records an event for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

// Reset clears the window for a key. Called after a successful login so a
// legitimate user is not penalized for earlier typos.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// cleanupLoop periodically evicts expired keys; the map otherwise grows
// with every distinct key seen, and keys include caller-chosen strings.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.Cleanup()
	}
}

// Cleanup drops keys whose entire window has expired.
func (l *Limiter) Cleanup() {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ts := range l.hits {
		live := false
		for _, t := range ts {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, k)
		}
	}
}

// ClientIP extracts the originating client IP, honoring X-Forwarded-For and
// X-Real-IP set by the reverse proxy in front of the app.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
