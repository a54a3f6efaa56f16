// Package engine orchestrates packet lifecycle transitions over the
// governance document.
//
// States: pending -> in_progress -> {done, failed}; in_progress ->
// blocked only as a cascade side effect of a dependency failing, never
// a direct call; reset returns in_progress -> pending. A packet may
// carry at most one active handover, which suspends ownership without
// changing status.
//
// Every mutating transition runs the same envelope inside one locked
// read-modify-write cycle:
//
//	load fresh state -> snapshot before_log -> gates (zero mutation on
//	failure) -> mutate in memory -> append audit entry -> re-validate
//	append-only against before_log -> atomic persist
//
// A rejected transition never touches the filesystem. Because gates
// re-run against freshly loaded state under the write lock, racing
// claims on the same packet admit at most one winner; the losers fail
// their status gate instead of corrupting data. Cascade blocking from
// a failure lands in the same atomic write as the failure itself, so
// the two cannot diverge.
//
// Business failures are values (Result with OK=false), surfaced
// verbatim to operators. Errors are reserved for storage and
// integrity faults.
package engine
