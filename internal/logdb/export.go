package logdb

import (
	"context"
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// Export writes every audit entry of the document into the index in
// one transaction. Inserts are keyed on event id with ON CONFLICT DO
// NOTHING, so exporting the same document twice is a no-op and
// exporting after new transitions inserts only the new tail.
//
// Returns how many entries were newly inserted and how many were
// skipped for lacking an event id (entries predating id assignment).
func (d *DB) Export(ctx context.Context, st *state.GovernanceState) (inserted, skipped int, err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("export: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO log_entries
		(event_id, packet_id, event, actor, role, source, action, result, timestamp, notes, exit_state, hash, prev_hash, hash_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("export: prepare: %w", err)
	}
	defer stmt.Close()

	for _, entry := range st.Log {
		if entry.EventID == "" {
			skipped++
			continue
		}
		res, err := stmt.ExecContext(ctx,
			entry.EventID,
			entry.PacketID,
			entry.Event,
			entry.Actor,
			entry.Role,
			entry.Source,
			entry.Action,
			entry.Result,
			entry.Timestamp,
			entry.Notes,
			entry.ExitState,
			entry.Hash,
			entry.PrevHash,
			entry.HashIndex,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("export: insert %s: %w", entry.EventID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("export: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("export: commit: %w", err)
	}
	return inserted, skipped, nil
}
