package pageview

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a failing page is re-rendered.
type RetryPolicy struct {
	// MaxAttempts is the total number of renders tried before the page is
	// marked failed. Values below 1 mean 1.
	MaxAttempts int

	// InitialInterval is the delay after the first failure.
	InitialInterval time.Duration

	// MaxInterval caps the delay.
	MaxInterval time.Duration

	// Multiplier grows the delay after each failure.
	Multiplier float64
}

// DefaultRetryPolicy returns 3 attempts with delays of 200ms, 400ms, ...
// capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// newBackOff returns an exponential backoff without jitter.
func (p RetryPolicy) newBackOff(clock backoff.Clock) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               clock,
	}
	if b.InitialInterval <= 0 {
		b.InitialInterval = backoff.DefaultInitialInterval
	}
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Reset()
	return b
}

// Clock supplies time for retry scheduling.
type Clock interface {
	backoff.Clock

	// AfterFunc calls f on its own goroutine after d and returns a function
	// that cancels the call.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// retryState tracks failures of one page.
type retryState struct {
	attempts int
	err      error
	backoff  *backoff.ExponentialBackOff
	due      time.Time
	stop     func() bool
}

func (r *retryState) cancel() {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

// recordFailure counts a failed render of page index and either schedules
// the next attempt or marks the page failed.
func (v *Viewer) recordFailure(index int, err error) {
	rs := v.retries[index]
	if rs == nil {
		rs = &retryState{backoff: v.opts.retry.newBackOff(v.opts.clock)}
		v.retries[index] = rs
	}
	rs.attempts++
	rs.err = err
	rs.cancel()

	if rs.attempts >= v.opts.retry.attempts() {
		v.failed[index] = err
		Logger().Warn("pageview: page failed", "page", index, "attempts", rs.attempts, "err", err)
		return
	}

	delay := rs.backoff.NextBackOff()
	rs.due = v.opts.clock.Now().Add(delay)
	Logger().Warn("pageview: render failed, retrying", "page", index, "attempt", rs.attempts, "delay", delay, "err", err)

	top, bottom := v.pageSpan(index)
	tracker, notify := v.damage, v.opts.onRepaint
	rs.stop = v.opts.clock.AfterFunc(delay, func() {
		tracker.Mark(top, bottom)
		if notify != nil {
			notify()
		}
	})
}

// backingOff reports whether page index waits for a retry.
func (v *Viewer) backingOff(index int) bool {
	rs := v.retries[index]
	return rs != nil && v.opts.clock.Now().Before(rs.due)
}

// resetRetries cancels every scheduled retry and forgets failures.
func (v *Viewer) resetRetries() {
	for _, rs := range v.retries {
		rs.cancel()
	}
	clear(v.retries)
	clear(v.failed)
}

// RetryFailed returns every failed page to the unrendered state so the next
// repaint requests it again.
func (v *Viewer) RetryFailed() {
	if len(v.failed) == 0 {
		return
	}
	for index := range v.failed {
		if rs := v.retries[index]; rs != nil {
			rs.cancel()
			delete(v.retries, index)
		}
		v.markPage(index)
	}
	clear(v.failed)
	v.notifyRepaint()
}
