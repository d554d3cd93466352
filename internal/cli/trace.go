package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
	"github.com/roach88/slicemap/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Session   string // optional - lists sessions when empty
	Kind      string // optional - filter to one record kind
	StateHash string // optional - find records with this state
}

// TraceResult holds the trace of one session.
type TraceResult struct {
	Session  string        `json:"session"`
	Timeline []host.Record `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats counts records by kind.
type TraceStats struct {
	Total        int `json:"total"`
	Dispatches   int `json:"dispatches"`
	Effects      int `json:"effects"`
	Subscribes   int `json:"subscribes"`
	Unsubscribes int `json:"unsubscribes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded sessions",
		Long: `Inspect traces recorded with "slicemap run --db".

Without --session, lists every recorded session. With --session, prints
the session's records in seq order. With --state-hash, lists the records
whose state hashes to the given value.

Examples:
  slicemap trace --db ./trace.db
  slicemap trace --db ./trace.db --session demo-1
  slicemap trace --db ./trace.db --session demo-1 --kind dispatch
  slicemap trace --db ./trace.db --state-hash 3f2a...
  slicemap trace --db ./trace.db --session demo-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one record kind (dispatch|effect|subscribe|unsubscribe)")
	cmd.Flags().StringVar(&opts.StateHash, "state-hash", "", "find records whose state has this hash")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Kind != "" && !isRecordKind(opts.Kind) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q", opts.Kind))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.StateHash != "":
		return traceStateHash(ctx, opts, st, cmd)
	case opts.Session == "":
		return traceSessions(ctx, opts, st, cmd)
	}

	records, err := st.ReadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	if len(records) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status:  "ok",
				Data:    TraceResult{Session: opts.Session, Timeline: []host.Record{}},
				Session: opts.Session,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No records found for session: %s\n", opts.Session)
		return nil
	}

	result := TraceResult{
		Session:  opts.Session,
		Timeline: buildTimeline(records, opts.Kind),
		Stats:    countKinds(records),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, Session: opts.Session})
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

func isRecordKind(kind string) bool {
	switch host.RecordKind(kind) {
	case host.KindDispatch, host.KindEffect, host.KindSubscribe, host.KindUnsubscribe:
		return true
	}
	return false
}

// buildTimeline keeps the records of the given kind, or all of them.
func buildTimeline(records []host.Record, kind string) []host.Record {
	timeline := []host.Record{}
	for _, rec := range records {
		if kind != "" && string(rec.Kind) != kind {
			continue
		}
		timeline = append(timeline, rec)
	}
	return timeline
}

func countKinds(records []host.Record) TraceStats {
	stats := TraceStats{Total: len(records)}
	for _, rec := range records {
		switch rec.Kind {
		case host.KindDispatch:
			stats.Dispatches++
		case host.KindEffect:
			stats.Effects++
		case host.KindSubscribe:
			stats.Subscribes++
		case host.KindUnsubscribe:
			stats.Unsubscribes++
		}
	}
	return stats
}

func traceSessions(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: sessions})
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	for _, sess := range sessions {
		name := sess.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s  %s  %d record(s)", sess.ID, name, sess.Records)
		if opts.Verbose {
			fmt.Fprintf(w, "  last seq %d  state %s", sess.LastSeq, truncateHash(sess.FinalState))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func traceStateHash(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	refs, err := st.FindState(ctx, opts.StateHash)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find state", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: refs})
	}

	w := cmd.OutOrStdout()
	if len(refs) == 0 {
		fmt.Fprintf(w, "No records with state %s\n", truncateHash(opts.StateHash))
		return nil
	}
	for _, ref := range refs {
		fmt.Fprintf(w, "%s  [%d]\n", ref.Session, ref.Seq)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no records)")
	}
	for _, rec := range result.Timeline {
		formatRecord(w, rec, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Records: %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Dispatches:    %d\n", result.Stats.Dispatches)
	fmt.Fprintf(w, "  Effects:       %d\n", result.Stats.Effects)
	fmt.Fprintf(w, "  Subscribes:    %d\n", result.Stats.Subscribes)
	fmt.Fprintf(w, "  Unsubscribes:  %d\n", result.Stats.Unsubscribes)

	return nil
}

// formatRecord prints one record. Verbose output adds the state after it.
func formatRecord(w io.Writer, rec host.Record, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s", rec.Seq, strings.ToUpper(string(rec.Kind)), rec.Name)
	if rec.Payload != nil {
		fmt.Fprintf(w, " %s", formatValue(rec.Payload))
	}
	fmt.Fprintln(w)
	if verbose {
		fmt.Fprintf(w, "       State: %s\n", formatValue(rec.State))
	}
}

// formatValue renders plain data as canonical JSON so output is stable
// across runs.
func formatValue(v any) string {
	data, err := canon.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func truncateHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
