// Package ratelimit provides an in-memory fixed-window rate limiter.
//
// The window is anchored at the first request: the first Allow for a key
// arms a reset time of now+window, and every request until that reset
// counts against the limit. Check and increment happen under one lock,
// so concurrent requests cannot both slip under the ceiling.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	// now is overridable in tests.
	now func() time.Time
}

func New() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one attempt for (purpose, key) and reports whether it is
// within limit for the current window. Attempts past the ceiling still
// count, so a client hammering the endpoint never re-enters early.
func (l *Limiter) Allow(purpose, key string, limit int, windowLen time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := fmt.Sprintf("%s:%s", purpose, key)
	now := l.now()

	w, ok := l.windows[k]
	if !ok || now.After(w.resetAt) {
		l.windows[k] = &window{count: 1, resetAt: now.Add(windowLen)}
		return true
	}
	w.count++
	return w.count <= limit
}

// Cleanup removes windows whose reset time has passed.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
