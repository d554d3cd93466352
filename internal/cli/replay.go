package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
	"github.com/roach88/slicemap/internal/scenario"
	"github.com/roach88/slicemap/internal/store"
	"github.com/roach88/slicemap/internal/testutil"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // defaults to the scenario's session
}

// ReplayMismatch is the first record where the replay diverged.
type ReplayMismatch struct {
	Index    int    `json:"index"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Scenario      string          `json:"scenario"`
	Session       string          `json:"session"`
	Recorded      int             `json:"recorded"`
	Replayed      int             `json:"replayed"`
	Deterministic bool            `json:"deterministic"`
	Mismatch      *ReplayMismatch `json:"mismatch,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Re-run a scenario and verify it matches the recorded session",
		Long: `Re-run a scenario in memory and compare every record against the
session previously written with "slicemap run --db". Records are compared
as canonical JSON, so any difference in order, names, payloads or states
is reported.

Exit codes:
  0 - The replay matches the recorded session
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown session, etc.)

Examples:
  slicemap replay ./scenarios/sub_while.yaml --db ./trace.db
  slicemap replay ./scenarios/sub_while.yaml --db ./trace.db --session demo-1
  slicemap replay ./scenarios/sub_while.yaml --db ./trace.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "recorded session id (default: scenario session)")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid scenario", err)
	}
	if opts.Session != "" {
		sc.Session = opts.Session
	}
	session := testutil.NewFixedSession(sc.Session).Generate()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	recorded, err := st.ReadSession(ctx, session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if len(recorded) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no records found for session: %s", session))
	}

	run, err := scenario.Run(sc, scenario.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitFailure, "scenario could not run", err)
	}

	result := ReplayResult{
		Scenario:      sc.Name,
		Session:       session,
		Recorded:      len(recorded),
		Replayed:      len(run.Trace),
		Deterministic: true,
	}
	mm, err := compareRecords(recorded, run.Trace)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare records", err)
	}
	if mm != nil {
		result.Deterministic = false
		result.Mismatch = mm
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// compareRecords returns the first differing record, or nil when both
// traces are identical. A missing record on either side compares as null.
func compareRecords(recorded, replayed []host.Record) (*ReplayMismatch, error) {
	n := max(len(recorded), len(replayed))
	for i := range n {
		a, err := recordJSON(recorded, i)
		if err != nil {
			return nil, err
		}
		b, err := recordJSON(replayed, i)
		if err != nil {
			return nil, err
		}
		if a != b {
			return &ReplayMismatch{Index: i, Recorded: a, Replayed: b}, nil
		}
	}
	return nil, nil
}

func recordJSON(records []host.Record, i int) (string, error) {
	if i >= len(records) {
		return "null", nil
	}
	rec := records[i]
	data, err := canon.Marshal(map[string]any{
		"seq":     rec.Seq,
		"kind":    string(rec.Kind),
		"name":    rec.Name,
		"payload": rec.Payload,
		"state":   rec.State,
	})
	if err != nil {
		return "", fmt.Errorf("record %d: %w", i, err)
	}
	return string(data), nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result, Session: result.Session}
	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: "determinism verification failed",
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s %s (session %s)\n", passMark(result.Deterministic), result.Scenario, result.Session)
	fmt.Fprintf(w, "  Records: %d recorded, %d replayed\n", result.Recorded, result.Replayed)

	if result.Mismatch != nil {
		fmt.Fprintf(w, "  First difference at record %d\n", result.Mismatch.Index)
		fmt.Fprintf(w, "    recorded: %s\n", result.Mismatch.Recorded)
		fmt.Fprintf(w, "    replayed: %s\n", result.Mismatch.Replayed)
		return NewExitError(ExitFailure, "determinism verification failed")
	}

	fmt.Fprintln(w, "✓ Replay matches recorded session")
	return nil
}
