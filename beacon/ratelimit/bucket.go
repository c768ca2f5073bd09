// Package ratelimit tracks the global and per-route REST budgets and gates
// outgoing requests against them.
package ratelimit

import (
	"sync"
	"time"
)

// globalBucket counts requests against the platform's fixed per-second
// budget, anchored at the first request of the current window.
type globalBucket struct {
	mu              sync.Mutex
	limit           int
	requestsMade    int
	startedCounting time.Time
}

func newGlobalBucket(limit int) *globalBucket {
	return &globalBucket{limit: limit, startedCounting: time.Now()}
}

// incrementAndCheck increments the counter and reports whether the caller
// may proceed. When it may not, it returns the instant the window is
// expected to clear.
func (b *globalBucket) incrementAndCheck() (ok bool, sleepUntil time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requestsMade++
	if b.requestsMade < b.limit {
		return true, time.Time{}
	}

	windowEnd := b.startedCounting.Add(time.Second)

	now := time.Now()
	if windowEnd.After(now) {
		return false, windowEnd
	}

	b.requestsMade = 0
	b.startedCounting = now

	return true, time.Time{}
}

// saturate marks the global bucket as exhausted and re-anchors its window,
// applied when a response carries the X-RateLimit-Global header.
func (b *globalBucket) saturate(windowStart time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requestsMade = b.limit
	b.startedCounting = windowStart
}

// routeBucket is a canonical-route-template-scoped counter. remaining may be
// decremented optimistically below zero by concurrent pre-checks before a
// correcting response arrives.
type routeBucket struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func newRouteBucket() *routeBucket {
	// Assume a small limit until the first response reports the real one,
	// so early concurrent callers don't stampede.
	return &routeBucket{Limit: 5, Remaining: 5, Reset: time.Now()}
}

// decrementAndCheck mirrors globalBucket.incrementAndCheck for a single
// route: decrement, and if exhausted, either report the remaining wait or
// refill optimistically once the window has passed.
func (b *routeBucket) decrementAndCheck(safety time.Duration) (ok bool, sleepUntil time.Time) {
	b.Remaining--
	if b.Remaining > 0 {
		return true, time.Time{}
	}

	now := time.Now()
	if now.Before(b.Reset) {
		return false, b.Reset
	}

	b.Remaining = b.Limit
	b.Reset = now.Add(safety)

	return true, time.Time{}
}
