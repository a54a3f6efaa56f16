// Package storage persists the governance document as a single JSON
// file with crash-safe atomic replacement.
//
// Concurrency model: independent OS processes mutate the same document
// through whole-document read/modify/write. An advisory lock file
// (owner token + timestamp) serializes writers; the temp-file + rename
// write ensures readers never observe a partial document. Readers take
// no lock - a slightly stale snapshot is safe because every transition
// re-validates its business invariants against freshly loaded state
// under the write lock before persisting.
//
// Lock acquisition polls with a bounded timeout and reclaims locks
// older than a staleness threshold (an abandoned writer must not wedge
// the namespace forever). Timeout surfaces as *LockTimeoutError, never
// a hang.
//
// Error discipline: corrupt JSON is *ParseError, lock exhaustion is
// *LockTimeoutError, plain IO failures wrap the underlying error.
// Business-rule failures never originate here.
package storage
