package scenario

import (
	"fmt"
	"log/slog"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/lens"
	"github.com/roach88/slicemap/internal/mapper"
	"github.com/roach88/slicemap/internal/view"
)

// build is a scenario compiled against a live catalog.
//
// Every action is built once, so view handlers and subscription actions
// keep their identity across renders the way statically defined actions
// do in an app.
type build struct {
	cat     *catalog
	slices  map[string]*mapper.Mapper
	steps   []action.Action // dispatch actions, nil for other steps
	handler []action.Action // per view element
	subs    []action.Action // per subscription
}

func compile(sc *Scenario, logger *slog.Logger) (*build, error) {
	b := &build{
		cat:    newCatalog(logger),
		slices: make(map[string]*mapper.Mapper, len(sc.Slices)),
	}

	for name, sl := range sc.Slices {
		if sl.Ref != "" {
			m, ok := b.cat.mappers[sl.Ref]
			if !ok {
				return nil, fmt.Errorf("slices.%s: unknown mapper %q", name, sl.Ref)
			}
			b.slices[name] = m
			continue
		}
		b.slices[name] = mapper.FromLens(lens.Path(sl.Path...), mapper.WithLogger(logger))
	}

	b.steps = make([]action.Action, len(sc.Steps))
	for i, st := range sc.Steps {
		if st.Dispatch == nil {
			continue
		}
		a, err := b.action(*st.Dispatch)
		if err != nil {
			return nil, fmt.Errorf("steps[%d].dispatch: %w", i, err)
		}
		b.steps[i] = a
	}

	if sc.View != nil {
		b.handler = make([]action.Action, len(sc.View.Elements))
		for i, el := range sc.View.Elements {
			a, err := b.action(el.Action)
			if err != nil {
				return nil, fmt.Errorf("view.elements[%d].action: %w", i, err)
			}
			b.handler[i] = a
		}
	}

	b.subs = make([]action.Action, len(sc.Subscriptions))
	for i, sub := range sc.Subscriptions {
		a, err := b.action(sub.Action)
		if err != nil {
			return nil, fmt.Errorf("subscriptions[%d].action: %w", i, err)
		}
		b.subs[i] = a
	}

	return b, nil
}

// action builds an action expression.
func (b *build) action(e ActionExpr) (action.Action, error) {
	var a action.Action
	switch {
	case e.Ref != "":
		found, ok := b.cat.actions[e.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown action %q", e.Ref)
		}
		a = found
	default:
		a = action.Set(e.Value)
	}

	switch {
	case e.Transform != "":
		fn, ok := b.cat.transforms[e.Transform]
		if !ok {
			return nil, fmt.Errorf("unknown transform %q", e.Transform)
		}
		a = action.WithFunc(a, fn)
	case e.Payload != nil:
		a = action.With(a, e.Payload)
	}

	for _, name := range e.Via {
		a = b.slices[name].Action(a)
	}
	return a, nil
}

// through maps n through the named slices, innermost first.
func (b *build) through(n view.Node, via []string) view.Node {
	for _, name := range via {
		n = b.slices[name].View(n)
	}
	return n
}

// render builds the view for state.
func (b *build) render(v *View) func(state any) view.Node {
	return func(state any) view.Node {
		children := make([]view.Node, 0, len(v.Elements))
		for i, el := range v.Elements {
			event := el.Event
			if event == "" {
				event = "click"
			}
			props := map[string]any{"id": el.ID}
			props[view.DefaultEventPrefix+event] = b.handler[i]
			var n view.Node = view.H("button", props)

			via := el.Via
			if el.Switch != nil && el.Switch.holds(state) {
				via = el.Switch.Via
			}
			n = b.through(n, via)

			for range el.Depth {
				n = view.H("div", nil, n)
			}
			if el.Pass {
				n = view.Pass(n)
			}
			n = b.through(n, el.Around)
			children = append(children, n)
		}
		return b.through(view.H("main", nil, children...), v.Via)
	}
}

// subscriptions lists the trigger subscriptions for state. A subscription
// whose While condition fails leaves an empty slot so later positions keep
// their identity.
func (b *build) subscriptions(subs []Subscription) func(state any) []action.Effect {
	return func(state any) []action.Effect {
		out := make([]action.Effect, len(subs))
		for i, sub := range subs {
			if sub.While != nil && !sub.While.holds(state) {
				continue
			}
			e := b.cat.trigger.With(action.Options{"action": b.subs[i], "index": i})
			for _, name := range sub.Via {
				e = b.slices[name].Effect(e)
			}
			out[i] = e
		}
		return out
	}
}

func (c Condition) holds(state any) bool {
	v, ok := lens.Path(c.Path...).Extract(state).(int)
	return ok && v > c.Above
}
