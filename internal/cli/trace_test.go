package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
	"github.com/roach88/slicemap/internal/store"
)

// recordSession runs a fixture with --db under the given session id.
func recordSession(t *testing.T, dbPath, name, session string) {
	t.Helper()
	_, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", session, fixture(name))
	require.NoError(t, err)
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--session", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", "/nonexistent/path/test.db", "--session", "s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestTraceInvalidKind(t *testing.T) {
	_, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "t.db"), "--kind", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid kind "bogus"`)
}

func TestTraceListSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	out, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")

	recordSession(t, dbPath, "mapped_inc", "a-session")
	recordSession(t, dbPath, "sub_while", "b-session")

	out, _, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "a-session  mapped_inc  1 record(s)")
	assert.Contains(t, out, "b-session  sub_while")

	out, _, err = execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data []store.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "a-session", resp.Data[0].ID)
}

func TestTraceSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordSession(t, dbPath, "sub_while", "while-1")

	out, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "while-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Session: while-1")
	assert.Contains(t, out, "[1] DISPATCH foo.inc")
	assert.Contains(t, out, "SUBSCRIBE trigger")
	assert.Contains(t, out, "UNSUBSCRIBE trigger")
	assert.Contains(t, out, "Subscribes:    1")
	assert.Contains(t, out, "Unsubscribes:  1")
}

func TestTraceSessionKindFilterJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordSession(t, dbPath, "sub_while", "while-1")

	out, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--session", "while-1", "--kind", "dispatch")
	require.NoError(t, err)

	var resp struct {
		Status  string      `json:"status"`
		Session string      `json:"session"`
		Data    TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "while-1", resp.Session)
	require.NotEmpty(t, resp.Data.Timeline)
	for _, rec := range resp.Data.Timeline {
		assert.Equal(t, host.KindDispatch, rec.Kind)
	}
	assert.Equal(t, len(resp.Data.Timeline), resp.Data.Stats.Dispatches)
	assert.Greater(t, resp.Data.Stats.Total, resp.Data.Stats.Dispatches)
}

func TestTraceUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	out, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No records found for session: nope")
}

func TestTraceStateHash(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	recordSession(t, dbPath, "mapped_inc", "inc-1")

	hash, err := canon.StateHash(map[string]any{"foo": 3, "bar": 5})
	require.NoError(t, err)

	out, _, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--state-hash", hash)
	require.NoError(t, err)
	assert.Contains(t, out, "inc-1  [1]")
}

func TestBuildTimelineAndCountKinds(t *testing.T) {
	records := []host.Record{
		{Seq: 1, Kind: host.KindDispatch},
		{Seq: 2, Kind: host.KindEffect},
		{Seq: 3, Kind: host.KindSubscribe},
		{Seq: 4, Kind: host.KindDispatch},
		{Seq: 5, Kind: host.KindUnsubscribe},
	}

	assert.Len(t, buildTimeline(records, ""), 5)
	effects := buildTimeline(records, "effect")
	require.Len(t, effects, 1)
	assert.Equal(t, int64(2), effects[0].Seq)
	assert.NotNil(t, buildTimeline(nil, "dispatch"))

	assert.Equal(t, TraceStats{Total: 5, Dispatches: 2, Effects: 1, Subscribes: 1, Unsubscribes: 1}, countKinds(records))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, `{"a":[1,"x"],"b":null}`, formatValue(map[string]any{"b": nil, "a": []any{1, "x"}}))
	assert.Equal(t, "null", formatValue(nil))
}

func TestTruncateHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", truncateHash("0123456789abcdef"))
	assert.Equal(t, "short", truncateHash("short"))
}
