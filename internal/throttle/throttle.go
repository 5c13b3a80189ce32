// Package throttle enforces a fixed pause after each real provider call so a
// batch stays under the provider's requests-per-minute ceiling.
package throttle

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Throttle pauses for a static interval. A zero interval disables it.
type Throttle struct {
	interval time.Duration
	sleep    Sleeper
}

// Option customises a Throttle.
type Option func(*Throttle)

// WithSleeper replaces the timer-based sleeper, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(t *Throttle) {
		if s != nil {
			t.sleep = s
		}
	}
}

// New returns a throttle with the given interval.
func New(interval time.Duration, opts ...Option) *Throttle {
	if interval < 0 {
		interval = 0
	}
	t := &Throttle{interval: interval, sleep: Sleep}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Interval returns the configured pause.
func (t *Throttle) Interval() time.Duration {
	if t == nil {
		return 0
	}
	return t.interval
}

// Wait blocks for the interval. It returns ctx.Err() if ctx ends first.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return nil
	}
	return t.sleep(ctx, t.interval)
}

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
