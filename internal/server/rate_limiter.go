// Package server implements a token bucket rate limiter for per-user
// throttling that protects the hub from message floods.
package server

import (
	"sync"
	"time"
)

type rateLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	rate      float64
	lastCheck time.Time
}

func newRateLimiter(capacity int, interval time.Duration) *rateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	rate := float64(capacity) / interval.Seconds()
	if rate <= 0 {
		rate = float64(capacity)
	}

	return &rateLimiter{
		tokens:    float64(capacity),
		capacity:  float64(capacity),
		rate:      rate,
		lastCheck: time.Now(),
	}
}

func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastCheck).Seconds()
	rl.lastCheck = now

	if elapsed > 0 {
		rl.tokens += elapsed * rl.rate
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
	}

	if rl.tokens < 1 {
		return false
	}

	rl.tokens--
	return true
}

// limiterSet hands out one bucket per user id, so HTTP posts and the
// WebSocket read pump share a budget.
type limiterSet struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	limiters map[string]*rateLimiter
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		cfg:      cfg,
		limiters: make(map[string]*rateLimiter),
	}
}

func (s *limiterSet) allow(userID string) bool {
	s.mu.Lock()
	rl, ok := s.limiters[userID]
	if !ok {
		rl = newRateLimiter(s.cfg.Burst, s.cfg.RefillInterval)
		s.limiters[userID] = rl
	}
	s.mu.Unlock()

	return rl.allow()
}

func (s *limiterSet) forget(userID string) {
	s.mu.Lock()
	delete(s.limiters, userID)
	s.mu.Unlock()
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
