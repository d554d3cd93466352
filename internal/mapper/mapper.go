package mapper

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/lens"
	"github.com/roach88/slicemap/internal/memo"
	"github.com/roach88/slicemap/internal/view"
)

// Extract reads the inner state from the outer state.
type Extract func(outer any) any

// Merge folds a new inner state back into the outer state. It is resolved
// as an action, so it may return action.Value or an action.Result carrying
// effects that run on every commit through this mapper.
type Merge func(outer, inner any) action.Action

// Func maps a local action to an outer action. *Mapper implements it.
type Func interface {
	Action(a action.Action) action.Action
}

// Stats counts memo lookups.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Mapper translates slice-local actions, effects and views.
//
// Thread-safety: a Mapper is safe for concurrent use. Each memo table has
// its own lock.
type Mapper struct {
	name    string
	extract Extract
	merge   *action.Fn
	prefix  string
	logger  *slog.Logger

	fns     *memo.Weak[action.Fn, action.Fn]
	tuples  *memo.Weak[action.Tuple, action.Tuple]
	effects memo.List[action.Options, action.Effect]

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithEventPrefix sets the property prefix that marks event handlers.
//
// Default: "on" (view.DefaultEventPrefix)
func WithEventPrefix(prefix string) Option {
	return func(m *Mapper) {
		m.prefix = prefix
	}
}

// WithLogger sets the logger used for memo diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		m.logger = logger
	}
}

// New creates a Mapper. name prefixes the names of mapped actions in
// traces; it has no semantic effect.
//
// Each Mapper owns its own memo partition: two mappers built from the same
// extract/merge pair never share mapped values.
func New(name string, extract Extract, merge Merge, opts ...Option) *Mapper {
	m := &Mapper{
		name:    name,
		extract: extract,
		prefix:  view.DefaultEventPrefix,
		logger:  slog.Default(),
		fns:     memo.NewWeak[action.Fn, action.Fn](),
		tuples:  memo.NewWeak[action.Tuple, action.Tuple](),
	}
	m.merge = action.New(qualify(name, "merge"), func(outer, inner any) action.Action {
		return merge(outer, inner)
	})

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// FromLens creates a Mapper whose merge never emits effects.
func FromLens(l lens.Lens, opts ...Option) *Mapper {
	return New(l.Name, l.Extract, func(outer, inner any) action.Action {
		return action.Set(l.Merge(outer, inner))
	}, opts...)
}

// Name returns the mapper name.
func (m *Mapper) Name() string {
	return m.name
}

// Stats returns memo hit/miss counters.
func (m *Mapper) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}

// Action maps a local action of any kind.
//
// Function actions and tuples are memoized. Values and results are lifted
// into a fresh outer action on every call; they carry no identity to key on.
func (m *Mapper) Action(a action.Action) action.Action {
	switch v := a.(type) {
	case nil:
		return nil
	case *action.Fn:
		return m.Fn(v)
	case *action.Tuple:
		return m.Tuple(v)
	default:
		return m.wrap(action.Label(v), v)
	}
}

// Fn maps a function action. Repeated calls with the same f return the
// same pointer for as long as the caller keeps the first result alive.
func (m *Mapper) Fn(f *action.Fn) *action.Fn {
	mapped, hit := m.fns.GetOrInsert(f, func() *action.Fn {
		return m.wrap(f.Name(), f)
	})
	m.observe(hit, "action", f.Name())
	return mapped
}

// Tuple maps a tuple by mapping its head and keeping its transform.
// Repeated calls with the same t return the same pointer while it is held.
func (m *Mapper) Tuple(t *action.Tuple) *action.Tuple {
	mapped, hit := m.tuples.GetOrInsert(t, func() *action.Tuple {
		return &action.Tuple{Action: m.Action(t.Action), Transform: t.Transform}
	})
	m.observe(hit, "tuple", action.Label(t))
	return mapped
}

// Effect maps the actions inside an effect descriptor's options.
//
// Descriptors are memoized by effect function identity and shallow option
// equality: mapping a freshly built but shallow-equal descriptor returns
// the descriptor produced the first time, options map included. Entries
// live as long as the mapper; use MapEffects for one-shot effects.
func (m *Mapper) Effect(e action.Effect) action.Effect {
	if e.Fn == nil {
		return action.Effect{Fn: e.Fn, Options: MapProperties(m, e.Options)}
	}
	mapped, hit := m.effects.GetOrInsert(e.Fn, e.Options, action.ShallowEqual, func() action.Effect {
		return action.Effect{Fn: e.Fn, Options: MapProperties(m, e.Options)}
	})
	m.observe(hit, "effect", e.Fn.Name())
	return mapped
}

// Effects maps every descriptor of an effect list, preserving order.
func (m *Mapper) Effects(effects []action.Effect) []action.Effect {
	if effects == nil {
		return nil
	}
	out := make([]action.Effect, len(effects))
	for i, e := range effects {
		out[i] = m.Effect(e)
	}
	return out
}

// View maps the event handlers of a view tree.
func (m *Mapper) View(n view.Node) view.Node {
	return MapView(m, n, m.prefix)
}

// Map applies the mapper to any supported shape: an action, an effect, an
// effect list, a view node or a node list. Other values are returned
// unchanged.
func (m *Mapper) Map(x any) any {
	switch v := x.(type) {
	case action.Action:
		return m.Action(v)
	case action.Effect:
		return m.Effect(v)
	case []action.Effect:
		return m.Effects(v)
	case view.Node:
		return m.View(v)
	case []view.Node:
		out := make([]view.Node, len(v))
		for i, n := range v {
			out[i] = m.View(n)
		}
		return out
	default:
		return x
	}
}

// wrap builds the outer action for a local action.
func (m *Mapper) wrap(name string, local action.Action) *action.Fn {
	return action.New(qualify(m.name, name), func(outer, payload any) action.Action {
		sub := action.Resolve(local, m.extract(outer), payload)
		full := action.Resolve(m.merge, outer, sub.State)

		effects := make([]action.Effect, 0, len(sub.Effects)+len(full.Effects))
		effects = append(effects, MapEffects(m, sub.Effects)...)
		effects = append(effects, full.Effects...)

		return action.Result{State: full.State, Effects: effects}
	})
}

func (m *Mapper) observe(hit bool, kind, name string) {
	if hit {
		m.hits.Add(1)
		return
	}
	m.misses.Add(1)
	m.logger.Debug("memo miss", "mapper", m.name, "kind", kind, "name", name)
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
