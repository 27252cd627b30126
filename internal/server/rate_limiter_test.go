package server

import (
	"testing"
	"time"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := newRateLimiter(3, time.Hour)

	for i := range 3 {
		if !rl.allow() {
			t.Fatalf("token %d should be available", i)
		}
	}
	if rl.allow() {
		t.Fatal("bucket should be empty after the burst")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	if !rl.allow() {
		t.Fatal("first token should be available")
	}
	if rl.allow() {
		t.Fatal("second token should not be available yet")
	}

	time.Sleep(40 * time.Millisecond)
	if !rl.allow() {
		t.Fatal("token should have refilled")
	}
}

func TestRateLimiterInvalidParameters(t *testing.T) {
	rl := newRateLimiter(0, 0)
	if rl.capacity != 1 {
		t.Errorf("expected capacity clamp to 1, got %v", rl.capacity)
	}
	if rl.rate != 1 {
		t.Errorf("expected one token per second, got %v", rl.rate)
	}
}

// TestLimiterSet verifies each user gets an independent bucket that is
// dropped on forget.
func TestLimiterSet(t *testing.T) {
	set := newLimiterSet(RateLimitConfig{Burst: 1, RefillInterval: time.Hour})

	if !set.allow("alice") {
		t.Fatal("alice's first message should pass")
	}
	if set.allow("alice") {
		t.Fatal("alice should be throttled")
	}
	if !set.allow("bob") {
		t.Fatal("bob should have a separate bucket")
	}
	if set.len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", set.len())
	}

	set.forget("alice")
	if set.len() != 1 {
		t.Fatalf("expected 1 bucket after forget, got %d", set.len())
	}
	if !set.allow("alice") {
		t.Fatal("a forgotten user starts with a full bucket")
	}
}
