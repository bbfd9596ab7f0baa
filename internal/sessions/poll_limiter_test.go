package sessions

import (
	"testing"
	"time"
)

func TestPollLimiterWindow(t *testing.T) {
	now := time.Unix(0, 0)
	l := newPollLimiter(time.Second, func() time.Time { return now })

	if !l.Allow("sess-1") {
		t.Fatalf("first poll must pass")
	}
	if l.Allow("sess-1") {
		t.Fatalf("immediate second poll must be limited")
	}
	if !l.Allow("sess-2") {
		t.Fatalf("limit is keyed per session")
	}

	now = now.Add(1100 * time.Millisecond)
	if !l.Allow("sess-1") {
		t.Fatalf("poll after window must pass")
	}
}

func TestPollLimiterDefaults(t *testing.T) {
	l := newPollLimiter(0, nil)
	if l.RetryAfterSeconds() != 1 {
		t.Fatalf("expected 1s default window, got %d", l.RetryAfterSeconds())
	}

	var nilLimiter *pollLimiter
	if !nilLimiter.Allow("sess-1") {
		t.Fatalf("nil limiter must allow")
	}
	if nilLimiter.RetryAfterSeconds() != 1 {
		t.Fatalf("nil limiter retry-after must be 1")
	}
}
