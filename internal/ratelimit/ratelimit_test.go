package ratelimit

import (
	"testing"
	"time"
)

func TestAllowCeiling(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		if !l.Allow("request-code", "1.2.3.4", 5, 10*time.Minute) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	if l.Allow("request-code", "1.2.3.4", 5, 10*time.Minute) {
		t.Error("6th attempt should be denied")
	}
}

func TestPurposesAreIndependent(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		l.Allow("request-code", "1.2.3.4", 5, 10*time.Minute)
	}
	if l.Allow("request-code", "1.2.3.4", 5, 10*time.Minute) {
		t.Error("request-code window should be exhausted")
	}

	if !l.Allow("verify-code", "1.2.3.4", 10, 10*time.Minute) {
		t.Error("verify-code window should be untouched")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		l.Allow("request-code", "1.2.3.4", 5, 10*time.Minute)
	}

	if !l.Allow("request-code", "5.6.7.8", 5, 10*time.Minute) {
		t.Error("different IP should have its own window")
	}
}

func TestWindowReset(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("verify-code", "k", 3, 10*time.Minute)
	}
	if l.Allow("verify-code", "k", 3, 10*time.Minute) {
		t.Error("should be blocked within window")
	}

	// Denied attempts do not extend the window: it still ends 10 minutes
	// after the first request.
	now = now.Add(10*time.Minute + time.Second)
	if !l.Allow("verify-code", "k", 3, 10*time.Minute) {
		t.Error("should be allowed after the window anchored at the first request")
	}
}

func TestCleanup(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("request-code", "stale", 5, 10*time.Minute)
	now = now.Add(11 * time.Minute)
	l.Allow("request-code", "fresh", 5, 10*time.Minute)

	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["request-code:stale"]; ok {
		t.Error("stale window should have been cleaned up")
	}
	if _, ok := l.windows["request-code:fresh"]; !ok {
		t.Error("fresh window should still exist")
	}
}
