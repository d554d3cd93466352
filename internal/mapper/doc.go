// Package mapper implements the mapping engine: it translates actions,
// effects and view event handlers written against a slice of state into
// equivalents that run against the full state.
//
// # Mapping
//
// A Mapper is built from an extract/merge pair. Mapping a local action
// produces an outer function action which, when resolved against the outer
// state:
//
//  1. extracts the inner state
//  2. fully resolves the local action against it
//  3. resolves merge as an action with (outer, innerNewState), so a merge
//     may return effects of its own
//  4. remaps the local effects with the same mapper, so effects that
//     dispatch local actions keep addressing the slice
//  5. returns [mergedState, mappedEffects..., mergeEffects...]
//
// The outer action is itself an ordinary function action, so mapping is
// closed under composition: mapping an already mapped action nests slices
// with no special case.
//
// # Memoization
//
// Subscription diffing in the host compares effects by identity, so a
// mapper must return the same outer value for the same local value:
//
//	m.Fn(f) == m.Fn(f)
//
// Function actions and tuples are memoized in weak tables owned by the
// mapper (see package memo). An entry holds neither the local value nor the
// mapped one, so mappers built on the fly and the actions they map are both
// collectible; identity holds for as long as anyone keeps the mapped value.
//
// Effect descriptors are rebuilt on every render, so subscriptions mapped
// with Effect or Effects are memoized by effect function identity plus
// shallow equality of their options, for the lifetime of the mapper.
// Effects returned by a dispatched action run once and are remapped with
// MapEffects, which does not memoize.
//
// # Walkers
//
// MapProperties, MapEffects and MapView apply any Func across an options
// map, an effect list or a view tree. MapView only touches properties named
// like event handlers and leaves view.Passthrough subtrees alone.
package mapper
