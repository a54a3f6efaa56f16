package engine

import "time"

// Clock supplies transition timestamps. Implemented by the wall clock
// in production and testutil.Clock in tests for deterministic logs.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
