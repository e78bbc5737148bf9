package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = time.Minute

// Limits configures a token bucket.
type Limits struct {
	RequestsPerSecond float64
	BurstSize         int
}

// SearchConsoleLimits are conservative: search analytics queries count
// heavily against the per-site quota.
var SearchConsoleLimits = Limits{RequestsPerSecond: 1, BurstSize: 2}

// RateLimiter paces API calls and pauses them entirely after a 429.
type RateLimiter struct {
	bucket *rate.Limiter
	now    func() time.Time

	mu         sync.Mutex
	pauseUntil time.Time
}

// NewRateLimiter builds a limiter. A burst below one is raised to one.
func NewRateLimiter(l Limits) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(l.RequestsPerSecond), max(l.BurstSize, 1)),
		now:    time.Now,
	}
}

// remainingPause is how long callers must still hold off.
func (r *RateLimiter) remainingPause() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pauseUntil.Sub(r.now())
}

// Wait blocks for the pause window, if any, and then for a token.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if d := r.remainingPause(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.bucket.Wait(ctx)
}

// Allow takes a token without blocking. It fails during a pause.
func (r *RateLimiter) Allow() bool {
	if r.remainingPause() > 0 {
		return false
	}
	return r.bucket.Allow()
}

// Backoff pauses all calls for d, or defaultBackoff when d is not positive.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = defaultBackoff
	}
	r.mu.Lock()
	r.pauseUntil = r.now().Add(d)
	r.mu.Unlock()
}
