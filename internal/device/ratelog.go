package device

import (
	"sync"
	"time"

	"kinectxr/internal/rlog"
)

// errorRateLimiter throttles the event pump's per-iteration USB error
// logging to at most one summary per window, carrying the count of
// suppressed errors since the last summary — spec.md §4.A's "rate-limit
// error logging to at most one summary per 10 seconds carrying the count of
// suppressed errors" and §9's "reproduce the cadence and the 'N errors in
// last Ms' wording" design note.
type errorRateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	lastEmit time.Time
	count    int
}

func newErrorRateLimiter(window time.Duration) *errorRateLimiter {
	return &errorRateLimiter{window: window}
}

// Report records one occurrence of a USB-level error and, if the window has
// elapsed since the last summary, emits a log line and resets the counter.
func (r *errorRateLimiter) Report(now time.Time, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if r.lastEmit.IsZero() {
		r.lastEmit = now
	}
	elapsed := now.Sub(r.lastEmit)
	if elapsed < r.window {
		return
	}
	rlog.Get().Warn().
		Int("count", r.count).
		Dur("window", elapsed).
		Str("last_detail", detail).
		Msgf("%d USB errors in last %dms", r.count, elapsed.Milliseconds())
	r.count = 0
	r.lastEmit = now
}
