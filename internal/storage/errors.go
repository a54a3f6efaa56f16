package storage

import (
	"fmt"
	"time"
)

// ParseError indicates the state document exists but is not valid JSON.
// This is an integrity-class failure: callers must not treat it as an
// empty document, and nothing is ever auto-repaired.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corrupt state document %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LockTimeoutError indicates the write lock could not be acquired
// within the configured timeout. Distinct from business failures so
// "the system is busy" is distinguishable from "your request was
// invalid".
type LockTimeoutError struct {
	Path    string
	Owner   string
	Waited  time.Duration
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for lock %s (held by %s)", e.Waited.Round(time.Millisecond), e.Path, e.Owner)
}
