// Package logdb maintains a derived SQLite index of the governance
// audit log for ad-hoc querying and reporting.
//
// The JSON governance document remains the single source of truth; the
// database is a disposable projection that can be deleted and rebuilt
// from the document at any time. Export is idempotent: entries are
// keyed by event id and duplicate exports are silently ignored, so
// re-exporting after new transitions only appends the new tail.
package logdb
