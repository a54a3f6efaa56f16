// Package testutil provides deterministic helpers shared by tests.
// It deliberately imports nothing internal so every package can use it
// without dependency cycles.
package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic clock for tests: each Now() call returns
// the base time advanced by one more step, so log timestamps are
// unique, ordered and reproducible.
//
// Thread-safe: all methods are safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int
}

// NewClock creates a clock starting at base, advancing by step per
// Now() call.
func NewClock(base time.Time, step time.Duration) *Clock {
	return &Clock{base: base, step: step}
}

// NewDefaultClock starts at a fixed epoch advancing one second per
// call, sufficient for most tests.
func NewDefaultClock() *Clock {
	return NewClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), time.Second)
}

// Now returns the next tick.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * c.step)
}

// Calls returns how many times Now has been called.
func (c *Clock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock for test reuse.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
