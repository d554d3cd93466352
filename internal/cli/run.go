package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slicemap/internal/host"
	"github.com/roach88/slicemap/internal/scenario"
	"github.com/roach88/slicemap/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // optional; records the trace when set
	Session  string // overrides the scenario's session id
}

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Scenario string        `json:"scenario"`
	Session  string        `json:"session"`
	Pass     bool          `json:"pass"`
	Errors   []string      `json:"errors,omitempty"`
	State    any           `json:"state"`
	Trace    []host.Record `json:"trace"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario in a fresh app and print every trace record and the
final state. With --db the trace is also written to a SQLite database,
under a session named after the scenario.

Exit codes:
  0 - Every expectation matched
  1 - An expectation failed or the scenario file is invalid
  2 - Command error (file or database not found, etc.)

Examples:
  slicemap run ./scenarios/mapped_inc.yaml
  slicemap run ./scenarios/sub_while.yaml --db ./trace.db --session demo-1
  slicemap run ./scenarios/view_nested.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for the trace")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default: scenario session)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
	}

	sc, err := scenario.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidScenario, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid scenario", err)
	}
	if opts.Session != "" {
		sc.Session = opts.Session
	}

	runOpts := []scenario.Option{scenario.WithLogger(logger)}
	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, scenario.WithStore(st))
	}

	formatter.VerboseLog("Running %s", sc.Name)
	result, err := scenario.Run(sc, runOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario could not run", err)
	}

	out := RunResult{
		Scenario: sc.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		State:    host.Describe(result.State),
		Trace:    result.Trace,
	}
	if len(result.Trace) > 0 {
		out.Session = result.Trace[0].Session
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: out, Session: out.Session}
		if !out.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenarioFailed,
				Message: fmt.Sprintf("%d expectation(s) failed", len(out.Errors)),
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, out, opts.Verbose)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

func outputRunText(cmd *cobra.Command, out RunResult, verbose bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s %s (session %s)\n", passMark(out.Pass), out.Scenario, out.Session)
	for _, rec := range out.Trace {
		formatRecord(w, rec, verbose)
	}
	fmt.Fprintf(w, "Final state: %s\n", formatValue(out.State))
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func passMark(pass bool) string {
	if pass {
		return "✓"
	}
	return "✗"
}
