package audit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/state"
	"github.com/substratehq/substrate/internal/storage"
)

// IntegrityError indicates the log failed an append-only or hash-chain
// check. Fatal for the attempted transition: no partial write occurs,
// and callers must reload and re-validate rather than blindly retry.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "log integrity violation: " + e.Reason
}

// Append completes entry (event_id, chain linkage when the document is
// in hash_chain mode) and appends it to st.Log in memory. Persistence
// is the caller's responsibility so that a transition and its cascade
// land in one atomic write.
func Append(st *state.GovernanceState, entry state.LogEntry) (state.LogEntry, error) {
	entry.EventID = uuid.NewString()

	if st.LogIntegrityMode == state.IntegrityHashChain {
		prevHash := ""
		hashed := 0
		for i := range st.Log {
			if st.Log[i].Hashed() {
				prevHash = st.Log[i].Hash
				hashed++
			}
		}

		entry.PrevHash = prevHash
		entry.HashIndex = hashed + 1

		h, err := state.EntryHash(entry, prevHash)
		if err != nil {
			return state.LogEntry{}, fmt.Errorf("append log entry: %w", err)
		}
		entry.Hash = h
	}

	st.Log = append(st.Log, entry)
	return entry, nil
}

// AppendMutationLog appends one entry as its own transition: load
// under the write lock, append with chain linkage, validate the
// append-only invariant, persist atomically. Used by callers outside
// the engine envelope (e.g. external collaborators recording closeout
// events).
func AppendMutationLog(store *storage.Store, entry state.LogEntry) (state.LogEntry, error) {
	var appended state.LogEntry
	err := store.Update(func(st *state.GovernanceState) error {
		beforeLog := st.CloneLog()

		var aerr error
		appended, aerr = Append(st, entry)
		if aerr != nil {
			return aerr
		}
		return ValidateAppendOnly(beforeLog, st.Log)
	})
	if err != nil {
		return state.LogEntry{}, err
	}
	return appended, nil
}

// ValidateAppendOnly fails unless after is before plus only newly
// appended entries: it must not be shorter, and must not differ
// anywhere within before's length. Every transition snapshots the log
// at start and re-validates against it immediately before persisting,
// so a lost update cannot silently overwrite concurrent appends.
func ValidateAppendOnly(before, after []state.LogEntry) error {
	if len(after) < len(before) {
		return &IntegrityError{
			Reason: fmt.Sprintf("log shrank from %d to %d entries", len(before), len(after)),
		}
	}
	for i := range before {
		if before[i] != after[i] {
			return &IntegrityError{
				Reason: fmt.Sprintf("existing log entry at index %d was modified", i),
			}
		}
	}
	return nil
}
