// Package view defines the minimal view tree the mapping layer walks:
// elements with properties and children, text leaves, and passthrough
// markers.
//
// Trees are immutable. Transformations build new nodes and share every
// subtree they leave untouched.
package view

import "strings"

// DefaultEventPrefix marks event-handler properties ("onclick", "oninput").
const DefaultEventPrefix = "on"

// Node is a sealed interface over view nodes.
// Only *Element, Text and Passthrough implement it.
type Node interface {
	node() // Sealed
}

// Element is a tagged node with properties and children.
type Element struct {
	Tag      string
	Props    map[string]any
	Children []Node
}

func (*Element) node() {}

// Text is an opaque leaf.
type Text string

func (Text) node() {}

// Passthrough wraps nodes that an enclosing mapper must leave untouched.
// Mappings applied to the nodes before wrapping stay in effect.
type Passthrough struct {
	Nodes []Node
}

func (Passthrough) node() {}

// H builds an element. Props may be nil.
func H(tag string, props map[string]any, children ...Node) *Element {
	if props == nil {
		props = map[string]any{}
	}
	return &Element{Tag: tag, Props: props, Children: children}
}

// Pass marks nodes as exempt from enclosing mappers.
func Pass(nodes ...Node) Passthrough {
	return Passthrough{Nodes: nodes}
}

// ID returns the element's "id" property, or "" when unset.
func (e *Element) ID() string {
	id, _ := e.Props["id"].(string)
	return id
}

// Handler returns the property bound to event under prefix, e.g. "onclick".
func (e *Element) Handler(prefix, event string) (any, bool) {
	v, ok := e.Props[prefix+event]
	return v, ok
}

// IsHandlerKey reports whether a property key names an event handler.
func IsHandlerKey(prefix, key string) bool {
	return len(key) > len(prefix) && strings.HasPrefix(key, prefix)
}

// Flatten returns nodes with passthrough markers replaced by their content.
// Renderers call it; the markers only matter to mappers.
func Flatten(nodes ...Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if p, ok := n.(Passthrough); ok {
			out = append(out, Flatten(p.Nodes...)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Find returns the first element, in depth-first order, whose id is id.
// Passthrough markers are searched through.
func Find(n Node, id string) *Element {
	switch v := n.(type) {
	case *Element:
		if v == nil {
			return nil
		}
		if v.ID() == id {
			return v
		}
		for _, c := range v.Children {
			if found := Find(c, id); found != nil {
				return found
			}
		}
	case Passthrough:
		for _, c := range v.Nodes {
			if found := Find(c, id); found != nil {
				return found
			}
		}
	}
	return nil
}
