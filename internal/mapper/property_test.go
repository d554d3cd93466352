package mapper

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/lens"
)

// Mapping a local action and running it against the outer state must equal
// running the local action against the extracted slice and merging back.
func TestProperty_MappedActionCommutesWithLens(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	foo := lens.Key("foo")
	m := FromLens(foo)

	properties.Property("mapped add equals extract, add, merge", prop.ForAll(
		func(start, other, payload int) bool {
			outer := obj("foo", start, "bar", other)
			got := action.Resolve(m.Action(add), outer, payload).State

			local := action.Resolve(add, foo.Extract(outer), payload).State
			want := foo.Merge(outer, local).(map[string]any)

			g := got.(map[string]any)
			return g["foo"] == want["foo"] && g["bar"] == other && len(g) == len(want)
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.Property("mapping twice equals mapping through the composed lens", prop.ForAll(
		func(start, payload int) bool {
			outer := obj("foo", obj("foo", start, "baz", 1), "bar", 5)
			twice := action.Resolve(m.Action(m.Action(add)), outer, payload).State
			composed := FromLens(lens.Path("foo", "foo"))
			once := action.Resolve(composed.Action(add), outer, payload).State

			a := twice.(map[string]any)["foo"].(map[string]any)
			b := once.(map[string]any)["foo"].(map[string]any)
			return a["foo"] == b["foo"] && a["foo"] == start+payload && a["baz"] == 1
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.Property("tuple transform is applied before the mapped head", prop.ForAll(
		func(start, payload, delta int) bool {
			tup := action.WithFunc(mul, func(p any) any { return p.(int) + delta })
			got := action.Resolve(m.Action(tup), obj("foo", start), payload).State
			return got.(map[string]any)["foo"] == start*(payload+delta)
		},
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
