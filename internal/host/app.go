package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/view"
)

// DefaultMaxSteps is the default maximum number of steps per drain.
// It stops effects that dispatch each other forever.
const DefaultMaxSteps = 1000

// App holds one state tree and runs dispatched actions against it.
//
// Thread-safety model:
//   - Dispatch and Event: safe from any goroutine. The first caller to find
//     the queue idle drains it; concurrent callers only enqueue and return.
//   - State, Tree, Session, Active: safe from any goroutine.
//   - Actions, effects, view and subscription functions run on the
//     draining goroutine only, one at a time.
type App struct {
	ctx      context.Context
	session  string
	clock    Sequencer
	sessions SessionGenerator
	recorder Recorder
	logger   *slog.Logger
	maxSteps int
	prefix   string

	view          func(state any) view.Node
	subscriptions func(state any) []action.Effect

	mu       sync.Mutex
	queue    *stepQueue
	draining bool
	stopped  bool
	dirty    bool
	state    any
	tree     view.Node
	subs     []activeSub
}

// Option configures an App.
type Option func(*App)

// WithView sets the function rendering the view tree after each drain.
func WithView(fn func(state any) view.Node) Option {
	return func(a *App) {
		a.view = fn
	}
}

// WithSubscriptions sets the function listing subscriptions after each
// drain. The list is diffed by position against the running one.
func WithSubscriptions(fn func(state any) []action.Effect) Option {
	return func(a *App) {
		a.subscriptions = fn
	}
}

// WithRecorder sets the trace recorder.
func WithRecorder(r Recorder) Option {
	return func(a *App) {
		a.recorder = r
	}
}

// WithLogger sets the logger.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSessionGenerator sets the generator for the session id.
//
// Default: UUIDv7Generator
func WithSessionGenerator(gen SessionGenerator) Option {
	return func(a *App) {
		a.sessions = gen
	}
}

// WithClock sets the clock stamping records. Used to resume a session or
// to replay a scenario with identical seq values.
//
// Default: NewClock()
func WithClock(c Sequencer) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithMaxSteps sets the maximum steps per drain.
//
// Default: 1000 steps (DefaultMaxSteps). Values <= 0 keep the default.
func WithMaxSteps(maxSteps int) Option {
	return func(a *App) {
		if maxSteps <= 0 {
			maxSteps = DefaultMaxSteps
		}
		a.maxSteps = maxSteps
	}
}

// WithEventPrefix sets the property prefix Event looks handlers up under.
//
// Default: "on" (view.DefaultEventPrefix)
func WithEventPrefix(prefix string) Option {
	return func(a *App) {
		a.prefix = prefix
	}
}

// New creates an App and settles its initial state.
//
// init is either an action, dispatched against a nil state, or the initial
// state itself. ctx bounds the app's lifetime: once it is done, dispatches
// fail with a STOPPED error.
func New(ctx context.Context, init any, opts ...Option) (*App, error) {
	a := &App{
		ctx:      ctx,
		clock:    NewClock(),
		sessions: UUIDv7Generator{},
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
		prefix:   view.DefaultEventPrefix,
		queue:    newStepQueue(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.session = a.sessions.Generate()
	a.logger = a.logger.With("session", a.session)

	a.dirty = true
	if act, ok := init.(action.Action); ok {
		return a, a.Dispatch(act, nil)
	}
	a.state = init
	return a, a.drain()
}

// Session returns the session id.
func (a *App) Session() string {
	return a.session
}

// State returns the current state.
func (a *App) State() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Tree returns the last rendered view tree, or nil without a view.
func (a *App) Tree() view.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tree
}

// Active returns the running subscriptions in position order. Empty slots
// are omitted.
func (a *App) Active() []action.Effect {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]action.Effect, 0, len(a.subs))
	for _, s := range a.subs {
		if s.active() {
			out = append(out, s.effect)
		}
	}
	return out
}

// Dispatch queues an action of any kind and drains the queue unless another goroutine
// is already draining it.
//
// Each step resolves the action against the current state, commits the
// new state and runs the resulting effects in order. Actions dispatched by
// effects are queued behind the current one. Once the queue is empty the
// view is rendered and subscriptions are diffed, which may queue more.
//
// Malformed action shapes panic with *action.ShapeError; the queue is
// cleared before the panic propagates.
func (a *App) Dispatch(act action.Action, payload any) error {
	if action.KindOf(act) == action.KindInvalid {
		return newNotActionError(a.session, act)
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return newStoppedError(a.session, nil)
	}
	a.queue.push(step{action: act, payload: payload})
	a.mu.Unlock()

	return a.drain()
}

// Event dispatches the handler bound to event on the rendered element
// whose id property is target. Passthrough markers are searched through.
func (a *App) Event(target, event string, payload any) error {
	tree := a.Tree()
	el := view.Find(tree, target)
	if el == nil {
		return newTargetError(a.session, target, event)
	}
	h, ok := el.Handler(a.prefix, event)
	if !ok || h == nil {
		return newHandlerError(a.session, target, event)
	}
	act, ok := h.(action.Action)
	if !ok {
		return newNotActionError(a.session, h)
	}
	return a.Dispatch(act, payload)
}

// Stop cancels every running subscription and rejects later dispatches.
// A drain in progress stops at its next step.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	if a.draining {
		a.mu.Unlock()
		return
	}
	subs := a.subs
	a.subs = nil
	a.mu.Unlock()

	a.cancelAll(subs)
	a.logger.Info("app stopped")
}

// drain processes queued steps until the queue is empty and settled.
func (a *App) drain() (err error) {
	a.mu.Lock()
	if a.draining {
		a.mu.Unlock()
		return nil
	}
	a.draining = true
	a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.abort()
			panic(r)
		}
	}()

	steps := 0
	for {
		if cause := a.ctx.Err(); cause != nil {
			a.abort()
			a.Stop()
			return newStoppedError(a.session, cause)
		}

		a.mu.Lock()
		if a.stopped {
			subs := a.subs
			a.subs = nil
			a.mu.Unlock()
			a.abort()
			a.cancelAll(subs)
			return newStoppedError(a.session, nil)
		}
		st, ok := a.queue.pop()
		if !ok {
			if !a.dirty {
				a.draining = false
				a.mu.Unlock()
				return nil
			}
			a.dirty = false
			a.mu.Unlock()
			a.settle()
			continue
		}
		a.mu.Unlock()

		steps++
		if steps > a.maxSteps {
			a.abort()
			err := NewQuotaError(a.session, steps, a.maxSteps)
			a.logger.Error("drain aborted", "error", err)
			return err
		}
		a.step(st)
	}
}

// abort drops pending steps and releases the drain.
func (a *App) abort() {
	a.mu.Lock()
	a.queue.reset()
	a.draining = false
	a.mu.Unlock()
}

func (a *App) step(st step) {
	prev := a.State()
	res := action.Resolve(st.action, prev, st.payload)

	a.mu.Lock()
	a.state = res.State
	if !action.Same(prev, res.State) {
		a.dirty = true
	}
	a.mu.Unlock()

	a.record(KindDispatch, action.Label(st.action), st.payload, res.State)
	for _, e := range res.Effects {
		if e.Fn == nil {
			continue
		}
		a.record(KindEffect, e.Fn.Name(), e.Options, res.State)
		e.Fn.Run(a.dispatchFromEffect, e.Options)
	}
}

// dispatchFromEffect is the Dispatch handed to effects and subscriptions.
// Errors have no caller to return to, so they are logged.
func (a *App) dispatchFromEffect(act action.Action, payload any) {
	if err := a.Dispatch(act, payload); err != nil {
		a.logger.Warn("effect dispatch failed", "action", action.Label(act), "error", err)
	}
}

// settle renders the view and diffs subscriptions against the new state.
func (a *App) settle() {
	state := a.State()
	if a.view != nil {
		tree := a.view(state)
		a.mu.Lock()
		a.tree = tree
		a.mu.Unlock()
	}
	if a.subscriptions != nil {
		a.patchSubs(a.subscriptions(state))
	}
}

func (a *App) record(kind RecordKind, name string, payload, state any) {
	if a.recorder == nil {
		return
	}
	rec := Record{
		Session: a.session,
		Seq:     a.clock.Next(),
		Kind:    kind,
		Name:    name,
		Payload: Describe(payload),
		State:   Describe(state),
	}
	if err := a.recorder.Record(a.ctx, rec); err != nil {
		// Log and continue: a broken trace must not change app behaviour.
		a.logger.Warn("record failed", "seq", rec.Seq, "kind", kind, "name", name, "error", err)
	}
}
