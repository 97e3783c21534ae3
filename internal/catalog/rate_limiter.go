package catalog

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces requests evenly; callers reserve a slot and sleep
// until it arrives.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	slot := now
	if r.nextAllowedAt.After(now) {
		slot = r.nextAllowedAt
	}
	r.nextAllowedAt = slot.Add(r.interval)
	return slot.Sub(now)
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	delay := r.reserve()
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
