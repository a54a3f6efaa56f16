package logdb

import (
	"context"
	"fmt"

	"github.com/substratehq/substrate/internal/state"
)

// Summary is an aggregate view over the exported log.
type Summary struct {
	Total    int            `json:"total"`
	ByEvent  map[string]int `json:"by_event"`
	ByPacket map[string]int `json:"by_packet"`
}

// Summarize aggregates entry counts by event and by packet.
func (d *DB) Summarize(ctx context.Context) (*Summary, error) {
	s := &Summary{
		ByEvent:  map[string]int{},
		ByPacket: map[string]int{},
	}

	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_entries`).Scan(&s.Total); err != nil {
		return nil, fmt.Errorf("summarize: total: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT event, COUNT(*) FROM log_entries GROUP BY event`)
	if err != nil {
		return nil, fmt.Errorf("summarize: by event: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("summarize: scan event: %w", err)
		}
		s.ByEvent[event] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize: by event: %w", err)
	}

	rows, err = d.db.QueryContext(ctx, `
		SELECT packet_id, COUNT(*) FROM log_entries
		WHERE packet_id != '' GROUP BY packet_id
	`)
	if err != nil {
		return nil, fmt.Errorf("summarize: by packet: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var packet string
		var n int
		if err := rows.Scan(&packet, &n); err != nil {
			return nil, fmt.Errorf("summarize: scan packet: %w", err)
		}
		s.ByPacket[packet] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize: by packet: %w", err)
	}

	return s, nil
}

// PacketHistory returns the exported entries for one packet ordered by
// timestamp, then event id for entries sharing a timestamp.
func (d *DB) PacketHistory(ctx context.Context, packetID string) ([]state.LogEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT event_id, packet_id, event, actor, role, source, action, result, timestamp, notes, exit_state, hash, prev_hash, hash_index
		FROM log_entries
		WHERE packet_id = ?
		ORDER BY timestamp, event_id
	`, packetID)
	if err != nil {
		return nil, fmt.Errorf("packet history: %w", err)
	}
	defer rows.Close()

	var entries []state.LogEntry
	for rows.Next() {
		var e state.LogEntry
		if err := rows.Scan(
			&e.EventID, &e.PacketID, &e.Event, &e.Actor, &e.Role, &e.Source,
			&e.Action, &e.Result, &e.Timestamp, &e.Notes, &e.ExitState,
			&e.Hash, &e.PrevHash, &e.HashIndex,
		); err != nil {
			return nil, fmt.Errorf("packet history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("packet history: %w", err)
	}
	return entries, nil
}
