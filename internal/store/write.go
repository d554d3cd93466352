package store

import (
	"context"
	"fmt"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
)

// Record appends a trace record. It satisfies host.Recorder.
//
// Writes are idempotent on (session, seq): replaying the same record is
// silently ignored. The session row is created on first use.
func (s *Store) Record(ctx context.Context, rec host.Record) error {
	payload, err := marshalValue(rec.Payload)
	if err != nil {
		return fmt.Errorf("record seq %d: payload: %w", rec.Seq, err)
	}
	state, err := marshalValue(rec.State)
	if err != nil {
		return fmt.Errorf("record seq %d: state: %w", rec.Seq, err)
	}
	stateHash := canon.HashBytes(canon.DomainState, []byte(state))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record seq %d: begin: %w", rec.Seq, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id) VALUES (?)
		ON CONFLICT(id) DO NOTHING
	`, rec.Session); err != nil {
		return fmt.Errorf("record seq %d: session: %w", rec.Seq, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records
		(session_id, seq, kind, name, payload, state, state_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		rec.Session,
		rec.Seq,
		string(rec.Kind),
		rec.Name,
		payload,
		state,
		stateHash,
	); err != nil {
		return fmt.Errorf("record seq %d: %w", rec.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record seq %d: commit: %w", rec.Seq, err)
	}
	return nil
}

// NameSession labels a session, creating it if needed.
func (s *Store) NameSession(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, id, name)
	if err != nil {
		return fmt.Errorf("name session %s: %w", id, err)
	}
	return nil
}
