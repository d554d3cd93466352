package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
	"github.com/roach88/slicemap/internal/store"
	"github.com/roach88/slicemap/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state.
	State any `json:"state"`

	// Trace holds every record in seq order.
	Trace []host.Record `json:"trace"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Trace:  []host.Record{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

type runConfig struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

// WithStore also writes the trace to st, naming the session after the
// scenario.
func WithStore(st *store.Store) Option {
	return func(c *runConfig) {
		c.store = st
	}
}

// WithLogger sets the logger for the app and its mappers.
//
// Default: a logger that discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario in a fresh app.
//
// The session id and clock are deterministic, so two runs of the same
// scenario produce identical traces. A failed expectation is reported in
// the result; the error return is reserved for scenarios that cannot run
// at all.
func Run(sc *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b, err := compile(sc, cfg.logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	mem := &host.MemoryRecorder{}
	var recorder host.Recorder = mem
	if cfg.store != nil {
		recorder = host.RecorderFunc(func(ctx context.Context, rec host.Record) error {
			_ = mem.Record(ctx, rec)
			return cfg.store.Record(ctx, rec)
		})
	}

	hostOpts := []host.Option{
		host.WithRecorder(recorder),
		host.WithLogger(cfg.logger),
		host.WithSessionGenerator(testutil.NewFixedSession(sc.Session)),
		host.WithClock(testutil.NewDeterministicClock()),
		host.WithSubscriptions(b.subscriptions(sc.Subscriptions)),
	}
	if sc.View != nil {
		hostOpts = append(hostOpts, host.WithView(b.render(sc.View)))
	}
	if sc.MaxSteps > 0 {
		hostOpts = append(hostOpts, host.WithMaxSteps(sc.MaxSteps))
	}

	app, err := host.New(ctx, sc.Init, hostOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start app: %w", err)
	}
	if cfg.store != nil {
		if err := cfg.store.NameSession(ctx, app.Session(), sc.Name); err != nil {
			return nil, fmt.Errorf("failed to name session: %w", err)
		}
	}

	result := NewResult()
	for i, st := range sc.Steps {
		err := runStep(app, b, i, st)
		checkStepError(result, i, st, err)
		if st.ExpectState != nil {
			checkValue(result, fmt.Sprintf("step %d: state", i), st.ExpectState, app.State())
		}
	}

	reports, starts := b.cat.snapshot()
	if sc.Expect.State != nil {
		checkValue(result, "final state", sc.Expect.State, app.State())
	}
	if sc.Expect.Reports != nil {
		checkValue(result, "reports", sc.Expect.Reports, reports)
	}
	if sc.Expect.SubscriptionStarts != nil && *sc.Expect.SubscriptionStarts != starts {
		result.AddError("subscription starts = %d, want %d", starts, *sc.Expect.SubscriptionStarts)
	}

	app.Stop()
	result.State = app.State()
	result.Trace = append(result.Trace, mem.Records...)
	return result, nil
}

// runStep performs one step. A panic from a malformed action becomes an
// error so the remaining steps still run.
func runStep(app *host.App, b *build, i int, st Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch {
	case st.Dispatch != nil:
		return app.Dispatch(b.steps[i], st.Payload)
	case st.Event != "":
		on := st.On
		if on == "" {
			on = "click"
		}
		return app.Event(st.Event, on, st.Payload)
	case st.Trigger != nil:
		return b.cat.fire(*st.Trigger, st.Payload)
	default:
		return fmt.Errorf("step has nothing to do")
	}
}

func checkStepError(r *Result, i int, st Step, err error) {
	switch {
	case err == nil && st.ExpectError != "":
		r.AddError("step %d: expected error %s, got none", i, st.ExpectError)
	case err == nil:
	case st.ExpectError == "":
		r.AddError("step %d: %v", i, err)
	default:
		var he *host.HostError
		if !errors.As(err, &he) || string(he.Code) != st.ExpectError {
			r.AddError("step %d: expected error %s, got %v", i, st.ExpectError, err)
		}
	}
}

// checkValue compares want and got by their canonical JSON.
func checkValue(r *Result, what string, want, got any) {
	w, werr := canon.Marshal(want)
	g, gerr := canon.Marshal(got)
	switch {
	case werr != nil:
		r.AddError("%s: expected value is not canonical: %v", what, werr)
	case gerr != nil:
		r.AddError("%s: %v", what, gerr)
	case !bytes.Equal(w, g):
		r.AddError("%s = %s, want %s", what, g, w)
	}
}
