package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainLogEntry is the domain prefix for log-entry content hashing.
// The version suffix enables future algorithm migration without
// invalidating existing chains wholesale.
const DomainLogEntry = "substrate/log-entry/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ChainFields returns the entry's content as a canonical field map for
// chain hashing. Hash itself is excluded (it is the output); PrevHash
// is passed explicitly so verification can recompute linkage from the
// neighbouring entry rather than trusting the stored field.
func (e LogEntry) ChainFields(prevHash string) map[string]any {
	return map[string]any{
		"packet_id":  e.PacketID,
		"event":      e.Event,
		"actor":      e.Actor,
		"role":       e.Role,
		"source":     e.Source,
		"action":     e.Action,
		"result":     e.Result,
		"timestamp":  e.Timestamp,
		"notes":      e.Notes,
		"exit_state": e.ExitState,
		"event_id":   e.EventID,
		"hash_index": e.HashIndex,
		"prev_hash":  prevHash,
	}
}

// EntryHash computes the content-addressed hash of a log entry given
// the hash of its chain predecessor (empty for the first hashed entry).
func EntryHash(e LogEntry, prevHash string) (string, error) {
	canonical, err := MarshalCanonical(e.ChainFields(prevHash))
	if err != nil {
		return "", fmt.Errorf("EntryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLogEntry, canonical), nil
}

// MustEntryHash is like EntryHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryHash(e LogEntry, prevHash string) string {
	h, err := EntryHash(e, prevHash)
	if err != nil {
		panic(err)
	}
	return h
}
