package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/slicemap/internal/host"
)

// Session summarizes one recorded session.
type Session struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Records    int    `json:"records"`
	LastSeq    int64  `json:"last_seq"`
	FinalState string `json:"final_state_hash"`
}

// ReadSession returns the records of a session ordered by seq.
// Returns an empty slice (not nil) for an unknown session.
func (s *Store) ReadSession(ctx context.Context, id string) ([]host.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, name, payload, state
		FROM records
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []host.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (host.Record, error) {
	var (
		rec            host.Record
		kind           string
		payload, state string
	)
	if err := rows.Scan(&rec.Session, &rec.Seq, &kind, &rec.Name, &payload, &state); err != nil {
		return host.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Kind = host.RecordKind(kind)

	var err error
	if rec.Payload, err = unmarshalValue(payload); err != nil {
		return host.Record{}, fmt.Errorf("record seq %d payload: %w", rec.Seq, err)
	}
	if rec.State, err = unmarshalValue(state); err != nil {
		return host.Record{}, fmt.Errorf("record seq %d state: %w", rec.Seq, err)
	}
	return rec, nil
}

// ListSessions returns every session ordered by id. UUIDv7 ids sort by
// creation time.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, COUNT(r.seq), COALESCE(MAX(r.seq), 0),
		       COALESCE((SELECT state_hash FROM records
		                 WHERE session_id = s.id
		                 ORDER BY seq DESC LIMIT 1), '')
		FROM sessions s
		LEFT JOIN records r ON r.session_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Records, &sess.LastSeq, &sess.FinalState); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// StateRef locates one record.
type StateRef struct {
	Session string `json:"session"`
	Seq     int64  `json:"seq"`
}

// FindState returns every record whose state hashes to hash, ordered by
// session and seq. It uses the state_hash index.
func (s *Store) FindState(ctx context.Context, hash string) ([]StateRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq
		FROM records
		WHERE state_hash = ?
		ORDER BY session_id COLLATE BINARY ASC, seq ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	refs := []StateRef{}
	for rows.Next() {
		var ref StateRef
		if err := rows.Scan(&ref.Session, &ref.Seq); err != nil {
			return nil, fmt.Errorf("scan state ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state refs: %w", err)
	}
	return refs, nil
}
