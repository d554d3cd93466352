// Package scenario runs YAML-described apps built from mapped slices and
// checks the resulting state, effects and subscriptions.
//
// # Scenario Format
//
//	name: twice_mapped_sub
//	description: "a subscription mapped twice updates the inner slice"
//	init: { foo: { foo: 3, baz: 2 }, bar: 1 }
//	slices:
//	  foo: { path: [foo] }
//	subscriptions:
//	  - action: { ref: mul, transform: plus2 }
//	    via: [foo, foo]
//	steps:
//	  - trigger: 0
//	    payload: 4
//	expect:
//	  state: { foo: { foo: 18, baz: 2 }, bar: 1 }
//
// Actions, transforms, effects and mappers are referred to by name from a
// built-in catalog (see Entries). Every run gets a fresh catalog, a fixed
// session id and a deterministic clock, so traces can be compared against
// golden files with RunWithGolden.
//
// Files are decoded with unknown fields rejected, then validated against
// an embedded CUE schema (schema.cue), then checked for dangling names.
package scenario
