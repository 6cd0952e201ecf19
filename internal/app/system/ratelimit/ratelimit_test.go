package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("203.0.113.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("203.0.113.1") {
		t.Error("fourth request within window should be denied")
	}

	// Other keys are unaffected.
	if !l.Allow("203.0.113.2") {
		t.Error("different key should be allowed")
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := New(1, 20*time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request should be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("limit should be hit")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("request after reset should be allowed")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	l.Allow("stale")
	time.Sleep(20 * time.Millisecond)
	l.Cleanup()

	l.mu.Lock()
	_, exists := l.hits["stale"]
	l.mu.Unlock()
	if exists {
		t.Error("expired key should be removed by Cleanup")
	}
}

func TestLimiter_JanitorEvictsExpiredKeys(t *testing.T) {
	// Distinct keys (login attempts carry caller-chosen email strings) must
	// not accumulate forever: the janitor started by New evicts them once
	// their window expires, without anyone calling Cleanup.
	l := New(1, 5*time.Millisecond)
	for _, k := range []string{"login:a@example.com", "login:b@example.com", "login:c@example.com"} {
		l.Allow(k)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		n := len(l.hits)
		l.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("expired keys were not evicted by the janitor")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded single", "198.51.100.1", "", "10.0.0.1:1234", "198.51.100.1"},
		{"forwarded chain", "198.51.100.1, 10.0.0.2", "", "10.0.0.1:1234", "198.51.100.1"},
		{"real ip", "", "198.51.100.9", "10.0.0.1:1234", "198.51.100.9"},
		{"remote addr", "", "", "203.0.113.5:4567", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
