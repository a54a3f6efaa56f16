package audit

import (
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// Report is the result of a log integrity verification pass.
type Report struct {
	Valid        bool     `json:"valid"`
	HashedEvents int      `json:"hashed_events"`
	Issues       []string `json:"issues,omitempty"`
}

// VerifyIntegrity recomputes hash linkage over every hashed entry and
// reports all violations found. Unhashed entries (appended before
// hash_chain mode was activated) are skipped, not flagged.
//
// Violations are reported, never auto-repaired.
func VerifyIntegrity(entries []state.LogEntry) Report {
	report := Report{Valid: true}

	prevHash := ""
	hashed := 0
	for i, e := range entries {
		if !e.Hashed() {
			continue
		}
		hashed++

		if e.PrevHash != prevHash {
			report.Issues = append(report.Issues,
				fmt.Sprintf("prev_hash mismatch at index %d: recorded %q, chain expects %q", i, short(e.PrevHash), short(prevHash)))
		}
		if e.HashIndex != hashed {
			report.Issues = append(report.Issues,
				fmt.Sprintf("hash_index mismatch at index %d: recorded %d, chain expects %d", i, e.HashIndex, hashed))
		}

		expected, err := state.EntryHash(e, prevHash)
		if err != nil {
			report.Issues = append(report.Issues,
				fmt.Sprintf("unhashable entry at index %d: %v", i, err))
		} else if e.Hash != expected {
			report.Issues = append(report.Issues,
				fmt.Sprintf("hash mismatch at index %d: recorded %q, computed %q", i, short(e.Hash), short(expected)))
		}

		// Continue the chain from the recorded hash so a single
		// corrupted entry yields one primary issue instead of
		// cascading mismatches on every successor.
		prevHash = e.Hash
	}

	report.HashedEvents = hashed
	report.Valid = len(report.Issues) == 0
	return report
}

// short truncates a hash for readable issue messages.
func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
