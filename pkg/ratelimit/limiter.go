package ratelimit

import (
	"context"
	"sync"
	"time"
)

// minPoll bounds how often Wait re-checks a full window
const minPoll = 10 * time.Millisecond

// Limiter gates outgoing image requests
type Limiter interface {
	Allow() bool
	// Wait blocks until a request is admitted or ctx ends
	Wait(ctx context.Context) error
	Reset()
}

// SlidingWindow admits at most maxRequests within any windowSize span.
// requests holds admission times, oldest first.
type SlidingWindow struct {
	mu          sync.Mutex
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	now         func() time.Time
}

func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
}

// PerMinute is the limiter behind the rate-limit setting. It returns nil,
// meaning unlimited, for n <= 0.
func PerMinute(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return NewSlidingWindow(n, time.Minute)
}

func (sw *SlidingWindow) Allow() bool {
	return sw.reserve() == 0
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		delay := sw.reserve()
		if delay == 0 {
			return nil
		}
		t := time.NewTimer(max(delay, minPoll))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	sw.requests = sw.requests[:0]
	sw.mu.Unlock()
}

// reserve records a request and returns 0 when the window has room.
// Otherwise it records nothing and returns how long until the oldest
// request expires.
func (sw *SlidingWindow) reserve() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.expire(now)
	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return 0
	}
	return max(sw.requests[0].Add(sw.windowSize).Sub(now), time.Nanosecond)
}

// expire drops admissions at or before now - windowSize
func (sw *SlidingWindow) expire(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	keep := 0
	for keep < len(sw.requests) && !sw.requests[keep].After(cutoff) {
		keep++
	}
	sw.requests = append(sw.requests[:0], sw.requests[keep:]...)
}
