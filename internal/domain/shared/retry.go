package shared

import (
	"sync"
	"time"
)

// RetryPolicy describes a bounded retry schedule with per-attempt delays.
// Attempts beyond the configured delays reuse the last delay.
type RetryPolicy struct {
	Delays []time.Duration
}

// DefaultRetryPolicy returns the standard bounded backoff schedule used for
// readiness polling: three attempts at increasing delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delays: []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond},
	}
}

// MaxAttempts returns the number of retry attempts allowed by the policy.
func (p RetryPolicy) MaxAttempts() int {
	return len(p.Delays)
}

// Delay returns the delay before the given attempt (1-based).
// Out-of-range attempts fall back to the last configured delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[attempt-1]
}

// Debouncer coalesces rapid successive triggers into a single callback
// invocation after a quiet window. The callback runs on a timer goroutine.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the quiet window, replacing any
// previously scheduled invocation. The latest fn wins, so callers should
// capture the freshest snapshot of their state in the closure.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.pending = false
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}

// Pending reports whether an invocation is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
