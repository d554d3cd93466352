// Package action defines the action, result and effect values that the
// mapping layer translates, together with the resolver that reduces any
// action to its final result.
//
// An Action is a sealed tagged variant. Only these types implement it:
//
//   - *Fn: a function action, (state, payload) -> Action
//   - Value: a literal next state
//   - *Tuple: an action paired with a payload transform
//   - Result: a literal [newState, effects...] result
//
// Function actions, tuples and effect functions are compared by pointer
// identity. Callers that need referential stability (subscription diffing)
// must keep reusing the same pointers, exactly as they would reuse the same
// function reference in a dynamic language.
//
// A literal state that happens to look like a tuple is never reinterpreted:
// a state is always wrapped in Value or Result, so the classifier is an
// exhaustive type switch rather than shape probing.
//
// # Resolution
//
//	Resolve(a, state, payload)
//
// follows function actions and payload transforms until it reaches a Value
// or Result. Resolution performs no cycle detection; an action that keeps
// producing itself never returns.
package action
