package mapper

import (
	"maps"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/view"
)

// MapProperties returns a shallow copy of props with every value that is an
// action replaced by m.Action(value). Other values are copied as-is.
// A nil map stays nil.
func MapProperties[M ~map[string]any](m Func, props M) M {
	if props == nil {
		return nil
	}
	out := make(M, len(props))
	for k, v := range props {
		if a, ok := v.(action.Action); ok && action.IsAction(a) {
			out[k] = m.Action(a)
			continue
		}
		out[k] = v
	}
	return out
}

// MapEffects maps the options of every descriptor, preserving order.
// Unlike (*Mapper).Effects it does not memoize.
func MapEffects(m Func, effects []action.Effect) []action.Effect {
	if effects == nil {
		return nil
	}
	out := make([]action.Effect, len(effects))
	for i, e := range effects {
		out[i] = action.Effect{Fn: e.Fn, Options: MapProperties(m, e.Options)}
	}
	return out
}

// MapView maps the event handlers of a view tree.
//
// Only properties whose key starts with prefix are mapped. Children are
// mapped recursively and text leaves pass through. A view.Passthrough is
// returned untouched, along with every mapping already applied inside it.
// Nodes without any handler in their subtree are shared, not copied.
func MapView(m Func, n view.Node, prefix string) view.Node {
	out, _ := mapNode(m, n, prefix)
	return out
}

func mapNode(m Func, n view.Node, prefix string) (view.Node, bool) {
	el, ok := n.(*view.Element)
	if !ok || el == nil {
		return n, false
	}

	var props map[string]any
	for k, v := range el.Props {
		if !view.IsHandlerKey(prefix, k) {
			continue
		}
		a, ok := v.(action.Action)
		if !ok || !action.IsAction(a) {
			continue
		}
		if props == nil {
			props = maps.Clone(el.Props)
		}
		props[k] = m.Action(a)
	}

	var children []view.Node
	for i, c := range el.Children {
		mc, changed := mapNode(m, c, prefix)
		if !changed {
			continue
		}
		if children == nil {
			children = make([]view.Node, len(el.Children))
			copy(children, el.Children)
		}
		children[i] = mc
	}

	if props == nil && children == nil {
		return el, false
	}
	if props == nil {
		props = el.Props
	}
	if children == nil {
		children = el.Children
	}
	return &view.Element{Tag: el.Tag, Props: props, Children: children}, true
}
