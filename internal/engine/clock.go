// ABOUTME: Device output clock abstraction
// ABOUTME: Monotonic seconds, read-only, owned by the scheduler
package engine

import "time"

// Clock is the output device clock in seconds. It runs independently of
// every suspension point in the engine and is only ever read; the
// scheduler is the sole component that consults it.
type Clock interface {
	Now() float64
}

type systemClock struct {
	start time.Time
}

// NewSystemClock returns a monotonic clock starting at zero
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
