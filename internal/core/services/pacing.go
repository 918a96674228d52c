package services

import (
	"time"

	"golang.org/x/time/rate"
)

// Pacing constants for remote rewrite calls.
const (
	// rateWindowLength is the span over which MaxRequestsPerMinute applies.
	rateWindowLength = time.Minute

	// rateWindowMargin is added to rate-gate sleeps so the next call lands
	// safely inside the new window.
	rateWindowMargin = 500 * time.Millisecond

	// backoffBase is the first retry delay when the server gives no hint.
	backoffBase = 2 * time.Second

	// backoffCeiling caps exponential backoff.
	backoffCeiling = 60 * time.Second

	// hintPadding is added to server-provided retry delays.
	hintPadding = time.Second

	// hintCeiling caps server-provided retry delays.
	hintCeiling = 120 * time.Second
)

// rateWindow counts remote calls inside a rolling one-minute window.
// It is owned by a single rewrite run and is not safe for concurrent use.
type rateWindow struct {
	limit int
	start time.Time
	calls int
}

func newRateWindow(limit int, now time.Time) *rateWindow {
	return &rateWindow{limit: limit, start: now}
}

// delay returns how long to wait before the next call. A window that has
// fully elapsed is reset; a zero limit disables the gate.
func (w *rateWindow) delay(now time.Time) time.Duration {
	if w.limit <= 0 {
		return 0
	}
	elapsed := now.Sub(w.start)
	if elapsed >= rateWindowLength {
		w.reset(now)
		return 0
	}
	if w.calls < w.limit {
		return 0
	}
	return rateWindowLength - elapsed + rateWindowMargin
}

func (w *rateWindow) reset(now time.Time) {
	w.start = now
	w.calls = 0
}

func (w *rateWindow) record() {
	w.calls++
}

// newThrottle spaces successive calls by interval. A non-positive interval
// never delays.
func newThrottle(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// retryPolicy is the per-chunk exponential backoff state.
type retryPolicy struct {
	next time.Duration
}

func newRetryPolicy() *retryPolicy {
	return &retryPolicy{next: backoffBase}
}

// delay returns the wait before the next attempt. A server hint takes
// precedence and leaves the exponential state untouched.
func (p *retryPolicy) delay(hint time.Duration) time.Duration {
	if hint > 0 {
		return min(hint+hintPadding, hintCeiling)
	}
	d := p.next
	p.next = min(p.next*2, backoffCeiling)
	return d
}
