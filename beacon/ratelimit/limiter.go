package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Header is the set of rate-limit response headers the limiter consumes.
// Route callers are responsible for parsing the raw HTTP headers into this
// shape; the limiter never touches an HTTP library directly.
type Header struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	Global     bool
	RetryAfter time.Duration
}

// Limiter is the global-plus-per-route budget coordinator gating every REST
// request. One Limiter is shared by every request issued through a single
// rest.Client.
type Limiter struct {
	global *globalBucket

	mu     sync.Mutex
	routes map[string]*routeBucket

	jitter time.Duration
	safety time.Duration
}

// New builds a Limiter. globalLimit is the platform-documented per-second
// budget (50, absent platform-specific override); jitter bounds the random
// delay added after a route bucket's reset to avoid thundering herds; safety
// is the margin added to an optimistically-refilled route's reset instant.
func New(globalLimit int, jitter, safety time.Duration) *Limiter {
	return &Limiter{
		global: newGlobalBucket(globalLimit),
		routes: make(map[string]*routeBucket),
		jitter: jitter,
		safety: safety,
	}
}

func (l *Limiter) routeBucket(route string) *routeBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.routes[route]
	if !ok {
		b = newRouteBucket()
		l.routes[route] = b
	}

	return b
}

// Check performs the pre-request gate: it consults the global bucket, then
// the named route's bucket, sleeping the caller as needed. route is the
// canonical path template, not the expanded URL.
func (l *Limiter) Check(ctx context.Context, route string) error {
	if ok, sleepUntil := l.global.incrementAndCheck(); !ok {
		if err := l.sleepUntil(ctx, sleepUntil); err != nil {
			return err
		}
	}

	bucket := l.routeBucket(route)

	l.mu.Lock()
	ok, sleepUntil := bucket.decrementAndCheck(l.safety)
	l.mu.Unlock()

	if !ok {
		if err := l.sleepUntil(ctx, sleepUntil); err != nil {
			return err
		}
	}

	return nil
}

func (l *Limiter) sleepUntil(ctx context.Context, t time.Time) error {
	jitter := time.Duration(0)
	if l.jitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(l.jitter)))
	}

	d := time.Until(t) + jitter
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ratelimit: wait cancelled: %w", ctx.Err())
	}
}

// Update applies the authoritative headers from a response, correcting any
// optimistic over-decrement Check applied. A response carrying the Global
// flag updates only the global bucket; otherwise only the named route's.
func (l *Limiter) Update(route string, h Header) {
	if h.Global {
		l.global.saturate(h.Reset)

		return
	}

	bucket := l.routeBucket(route)

	l.mu.Lock()
	bucket.Limit = h.Limit
	bucket.Remaining = h.Remaining
	bucket.Reset = h.Reset
	l.mu.Unlock()
}

// RetryDelay is the duration the REST core should sleep before its single
// permitted retry after a 429, per the documented "Retry-After + 100ms"
// leeway.
func RetryDelay(h Header) time.Duration {
	return h.RetryAfter + 100*time.Millisecond
}
