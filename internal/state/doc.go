// Package state defines the typed governance document and its records.
//
// This package contains type definitions plus the canonical-JSON hashing
// used for log-chain integrity. All other internal packages import state;
// state imports nothing internal. This keeps it the foundational layer
// with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere in persisted records - use int for numbers
//   - All JSON tags use snake_case
//   - Timestamps are RFC 3339 strings so the document round-trips
//     byte-stable through encoding/json
//   - The log slice is append-only; callers never mutate existing entries
package state
