package mapper

import (
	"maps"
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/lens"
)

var (
	inc = action.Pure("inc", func(s, _ any) any { return s.(int) + 1 })
	add = action.Pure("add", func(s, p any) any { return s.(int) + p.(int) })
	mul = action.Pure("mul", func(s, p any) any { return s.(int) * p.(int) })

	// exec dispatches option "a" with payload "p".
	exec = action.NewEffect("exec", func(d action.Dispatch, o action.Options) action.Cancel {
		d(o["a"].(action.Action), o["p"])
		return nil
	})

	// addNMulN = (x, y) => [x + y, exec(mul, y)]
	addNMulN = action.New("addNMulN", func(s, p any) action.Action {
		return action.Return(s.(int)+p.(int), exec.With(action.Options{"a": mul, "p": p}))
	})

	// addNMulNTuple = (x, y) => [x + y, exec([mul, y])]
	addNMulNTuple = action.New("addNMulNTuple", func(s, p any) action.Action {
		return action.Return(s.(int)+p.(int), exec.With(action.Options{"a": action.With(mul, p)}))
	})
)

// sliceMap focuses key "foo", like s => s.foo and (s, y) => ({...s, foo: y}).
func sliceMap() *Mapper {
	return FromLens(lens.Key("foo"))
}

// run dispatches a against state and runs effects depth-first, the way a
// host would, returning the final state.
func run(state any, a action.Action, payload any) any {
	var dispatch action.Dispatch
	dispatch = func(a action.Action, payload any) {
		res := action.Resolve(a, state, payload)
		state = res.State
		for _, e := range res.Effects {
			e.Fn.Run(dispatch, e.Options)
		}
	}
	dispatch(a, payload)
	return state
}

func obj(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestMapper_IdentityStability(t *testing.T) {
	m := sliceMap()

	first := m.Fn(inc)
	second := m.Fn(inc)
	assert.Same(t, first, second)
	assert.Equal(t, m.Action(inc), m.Action(inc))
	assert.NotSame(t, m.Fn(inc), m.Fn(add))

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(4), stats.Hits)
	runtime.KeepAlive(first)
}

func TestMapper_DispatchedEffectsAreNotMemoized(t *testing.T) {
	m := sliceMap()
	mapped := m.Action(addNMulNTuple)

	for i := 0; i < 1000; i++ {
		got := run(obj("foo", 4, "bar", 5), mapped, 3)
		require.Equal(t, obj("foo", 21, "bar", 5), got)
	}
	assert.Equal(t, 0, m.effects.Len(exec))
}

func TestMapper_CollectibleAfterMappingStaticAction(t *testing.T) {
	refs := make([]weak.Pointer[Mapper], 0, 100)
	for i := 0; i < 100; i++ {
		m := FromLens(lens.Key("item"))
		m.Fn(inc)
		refs = append(refs, weak.Make(m))
	}

	assert.Eventually(t, func() bool {
		runtime.GC()
		for _, r := range refs {
			if r.Value() != nil {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMapper_DropsEntriesForUnusedActions(t *testing.T) {
	m := sliceMap()
	for i := 0; i < 100; i++ {
		m.Fn(action.Pure("step", func(s, _ any) any { return s }))
	}
	held := m.Fn(inc)

	assert.Eventually(t, func() bool {
		runtime.GC()
		return m.fns.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Same(t, held, m.Fn(inc))
}

func TestMapper_IndependentCachesPerMapper(t *testing.T) {
	a, b := sliceMap(), sliceMap()
	assert.NotSame(t, a.Fn(inc), b.Fn(inc), "mappers built from equal lenses do not share entries")
	assert.Same(t, a.Fn(inc), a.Fn(inc))
}

func TestMapper_TupleIdentity(t *testing.T) {
	m := sliceMap()
	tup := action.With(add, 1)

	mapped := m.Tuple(tup)
	assert.Same(t, mapped, m.Tuple(tup))
	assert.Same(t, m.Fn(add), mapped.Action, "the head is mapped through the same memo")
	assert.Equal(t, tup.Transform, mapped.Transform)
}

func TestMapper_SingleMapping(t *testing.T) {
	m := sliceMap()
	got := run(obj("foo", 2, "bar", 5), m.Action(inc), nil)
	assert.Equal(t, obj("foo", 3, "bar", 5), got)
}

func TestMapper_PayloadThreading(t *testing.T) {
	m := sliceMap()
	got := run(obj("foo", 2, "bar", 5), m.Action(add), 2)
	assert.Equal(t, obj("foo", 4, "bar", 5), got)
}

func TestMapper_EffectPropagation(t *testing.T) {
	var reported any
	report := action.NewEffect("report", func(_ action.Dispatch, o action.Options) action.Cancel {
		reported = o["v"]
		return nil
	})
	add3 := action.New("add3", func(s, _ any) action.Action {
		return action.Return(s.(int)+3, report.With(action.Options{"v": 3}))
	})

	m := sliceMap()
	got := run(obj("foo", 2, "bar", 5), m.Action(add3), nil)
	assert.Equal(t, obj("foo", 5, "bar", 5), got)
	assert.Equal(t, 3, reported)
}

func TestMapper_EffectsWithActions(t *testing.T) {
	m := sliceMap()

	got := run(obj("foo", 4, "bar", 5), m.Action(addNMulN), 3)
	assert.Equal(t, obj("foo", 21, "bar", 5), got)

	got = run(obj("foo", 4, "bar", 5), m.Action(addNMulNTuple), 3)
	assert.Equal(t, obj("foo", 21, "bar", 5), got)
}

func TestMapper_DoubleMapping(t *testing.T) {
	m := sliceMap()
	init := func(foo int) map[string]any {
		return obj("foo", obj("foo", foo, "baz", 1), "bar", 5)
	}

	cases := []struct {
		name    string
		local   action.Action
		start   int
		payload any
		want    int
	}{
		{"plain", inc, 2, nil, 3},
		{"payload", add, 2, 2, 4},
		{"effects with actions", addNMulN, 4, 3, 21},
		{"effects with tuple actions", addNMulNTuple, 4, 3, 21},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := run(init(tc.start), m.Action(m.Action(tc.local)), tc.payload)
			assert.Equal(t, init(tc.want), got)
		})
	}
}

func TestMapper_MappedTupleKeepsTransform(t *testing.T) {
	m := sliceMap()
	plus2 := action.WithFunc(mul, func(p any) any { return p.(int) + 2 })

	got := run(obj("foo", 3, "bar", 1), m.Action(plus2), 4)
	assert.Equal(t, obj("foo", 18, "bar", 1), got)
}

func TestMapper_ActionReturningTuple(t *testing.T) {
	// op = (x, z) => [mul, z], dispatched as [op, x => x + 2]
	op := action.New("op", func(_, z any) action.Action { return action.With(mul, z) })
	m := sliceMap()

	got := run(obj("foo", 3, "bar", 1), m.Action(action.WithFunc(op, func(p any) any { return p.(int) + 2 })), 4)
	assert.Equal(t, obj("foo", 18, "bar", 1), got)
}

func TestMapper_ValueActionIsLifted(t *testing.T) {
	m := sliceMap()
	got := run(obj("foo", 1, "bar", 2), m.Action(action.Set(7)), nil)
	assert.Equal(t, obj("foo", 7, "bar", 2), got)
	assert.Nil(t, m.Action(nil))
}

func TestMapper_MergeEffectsRunOncePerDispatch(t *testing.T) {
	// merge = (old, next) => next.foo > 1 ? upBar(next) : next
	// upBar returns [{...s, bar: bar+1}, exec(upBaz)] with upBaz unmapped.
	bump := func(key string) func(s, _ any) any {
		return func(s, _ any) any {
			next := maps.Clone(s.(map[string]any))
			next[key] = next[key].(int) + 1
			return next
		}
	}
	upFoo := action.Pure("upFoo", bump("foo"))
	upBaz := action.Pure("upBaz", bump("baz"))

	runs := 0
	counted := action.NewEffect("exec", func(d action.Dispatch, o action.Options) action.Cancel {
		runs++
		d(o["a"].(action.Action), nil)
		return nil
	})

	m := New("root",
		func(s any) any { return s },
		func(_, next any) action.Action {
			if next.(map[string]any)["foo"].(int) > 1 {
				return action.Return(bump("bar")(next, nil), counted.With(action.Options{"a": upBaz}))
			}
			return action.Set(next)
		},
	)

	state := run(obj("foo", 1, "bar", 1, "baz", 1), m.Action(upFoo), nil)
	assert.Equal(t, obj("foo", 2, "bar", 2, "baz", 2), state)
	assert.Equal(t, 1, runs)

	state = run(state, m.Action(upFoo), nil)
	assert.Equal(t, obj("foo", 3, "bar", 3, "baz", 3), state)
	assert.Equal(t, 2, runs, "merge effects are neither duplicated nor dropped")
}

func TestMapper_MergeEffectsAreNotRemapped(t *testing.T) {
	marker := action.NewEffect("marker", func(action.Dispatch, action.Options) action.Cancel { return nil })
	opts := action.Options{"a": inc}

	m := New("foo",
		func(s any) any { return s.(map[string]any)["foo"] },
		func(s, y any) action.Action {
			next := maps.Clone(s.(map[string]any))
			next["foo"] = y
			return action.Return(next, marker.With(opts))
		},
	)

	res := action.Resolve(m.Action(inc), obj("foo", 1), nil)
	require.Len(t, res.Effects, 1)
	assert.Same(t, inc, res.Effects[0].Options["a"], "merge effects address the outer state already")
}

func TestMapper_ResultOrdersLocalEffectsBeforeMergeEffects(t *testing.T) {
	local := action.NewEffect("local", func(action.Dispatch, action.Options) action.Cancel { return nil })
	merged := action.NewEffect("merged", func(action.Dispatch, action.Options) action.Cancel { return nil })

	m := New("all",
		func(s any) any { return s },
		func(_, y any) action.Action { return action.Return(y, merged.With(nil)) },
	)
	a := action.New("a", func(s, _ any) action.Action {
		return action.Return(s, local.With(action.Options{"n": 1}), local.With(action.Options{"n": 2}))
	})

	res := action.Resolve(m.Action(a), 0, nil)
	require.Len(t, res.Effects, 3)
	assert.Same(t, local, res.Effects[0].Fn)
	assert.Equal(t, 1, res.Effects[0].Options["n"])
	assert.Equal(t, 2, res.Effects[1].Options["n"])
	assert.Same(t, merged, res.Effects[2].Fn)
}

func TestMapper_MappedNamesNest(t *testing.T) {
	m := sliceMap()
	assert.Equal(t, "foo.inc", m.Fn(inc).Name())
	assert.Equal(t, "foo.foo.inc", m.Fn(m.Fn(inc)).Name())
	assert.Equal(t, "foo", m.Name())
}
