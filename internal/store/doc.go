// Package store provides SQLite-backed storage for host traces.
//
// The store is an append-only log with two tables:
//   - sessions: one row per app session, optionally named
//   - records: dispatch, effect and subscription records
//
// # Logical Time
//
// Records are keyed and ordered by (session, seq), where seq comes from the
// host's logical clock. Wall time is never stored, so a replayed scenario
// writes identical rows.
//
// # Canonical State
//
// Payloads and states are stored as canonical JSON (package canon) next to
// a domain-separated hash of the state. Equal states in different sessions
// share a hash, which FindState looks up through an index.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000ms
//   - foreign_keys=ON
package store
