package scenario

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/roach88/slicemap/internal/action"
	"github.com/roach88/slicemap/internal/mapper"
)

// Entry describes one catalog item a scenario can refer to by name.
type Entry struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// Catalog item kinds.
const (
	KindAction    = "action"
	KindTransform = "transform"
	KindMapper    = "mapper"
	KindEffect    = "effect"
)

var actionEntries = map[string]string{
	"inc":                "s + 1",
	"add":                "s + p",
	"mul":                "s * p",
	"add3_report":        "s + 3, then report(3)",
	"add_then_mul":       "s + p, then exec(mul, p)",
	"add_then_mul_tuple": "s + p, then exec([mul, p])",
	"add_then_mul_dec":   "s + p, then exec([mul, minus1], p)",
	"op_mul":             "returns [mul, p]",
	"op_add":             "returns [add, p]",
	"up_foo":             "increments key foo",
	"up_baz":             "increments key baz",
	"loop":               "keeps s, then exec(loop) forever",
}

var transformEntries = map[string]string{
	"plus1":  "p + 1",
	"plus2":  "p + 2",
	"minus1": "p - 1",
}

var mapperEntries = map[string]string{
	"bump_bar": "whole state; merge increments bar and runs exec(up_baz) once foo > 1",
}

var effectEntries = map[string]string{
	"exec":    "dispatches option a with payload option p",
	"report":  "records option value",
	"trigger": "subscription; a trigger step dispatches option action",
}

// Entries lists the catalog sorted by kind, then name.
func Entries() []Entry {
	var out []Entry
	for _, group := range []struct {
		kind string
		docs map[string]string
	}{
		{KindAction, actionEntries},
		{KindEffect, effectEntries},
		{KindMapper, mapperEntries},
		{KindTransform, transformEntries},
	} {
		for _, name := range slices.Sorted(maps.Keys(group.docs)) {
			out = append(out, Entry{Kind: group.kind, Name: name, Doc: group.docs[name]})
		}
	}
	return out
}

// catalog holds the live catalog for one run. Effects close over it, so
// reports and triggers never leak between runs.
type catalog struct {
	actions    map[string]action.Action
	transforms map[string]func(any) any
	mappers    map[string]*mapper.Mapper

	exec    *action.EffectFn
	report  *action.EffectFn
	trigger *action.EffectFn

	mu       sync.Mutex
	reports  []any
	triggers map[int]func(payload any)
	starts   int
}

func newCatalog(logger *slog.Logger) *catalog {
	c := &catalog{triggers: map[int]func(any){}}

	c.exec = action.NewEffect("exec", func(d action.Dispatch, o action.Options) action.Cancel {
		d(o["a"].(action.Action), o["p"])
		return nil
	})
	c.report = action.NewEffect("report", func(_ action.Dispatch, o action.Options) action.Cancel {
		c.mu.Lock()
		c.reports = append(c.reports, o["value"])
		c.mu.Unlock()
		return nil
	})
	c.trigger = action.NewEffect("trigger", func(d action.Dispatch, o action.Options) action.Cancel {
		idx := o["index"].(int)
		act := o["action"].(action.Action)

		c.mu.Lock()
		c.starts++
		c.triggers[idx] = func(p any) { d(act, p) }
		c.mu.Unlock()

		return func() {
			c.mu.Lock()
			delete(c.triggers, idx)
			c.mu.Unlock()
		}
	})

	c.transforms = map[string]func(any) any{
		"plus1":  func(p any) any { return num(p) + 1 },
		"plus2":  func(p any) any { return num(p) + 2 },
		"minus1": func(p any) any { return num(p) - 1 },
	}

	inc := action.Pure("inc", func(s, _ any) any { return num(s) + 1 })
	add := action.Pure("add", func(s, p any) any { return num(s) + num(p) })
	mul := action.Pure("mul", func(s, p any) any { return num(s) * num(p) })
	upBaz := action.Pure("up_baz", bump("baz"))

	var loop *action.Fn
	loop = action.New("loop", func(s, _ any) action.Action {
		return action.Return(s, c.exec.With(action.Options{"a": loop}))
	})

	c.actions = map[string]action.Action{
		"inc": inc,
		"add": add,
		"mul": mul,
		"add3_report": action.New("add3_report", func(s, _ any) action.Action {
			return action.Return(num(s)+3, c.report.With(action.Options{"value": 3}))
		}),
		"add_then_mul": action.New("add_then_mul", func(s, p any) action.Action {
			return action.Return(num(s)+num(p), c.exec.With(action.Options{"a": mul, "p": p}))
		}),
		"add_then_mul_tuple": action.New("add_then_mul_tuple", func(s, p any) action.Action {
			return action.Return(num(s)+num(p), c.exec.With(action.Options{"a": action.With(mul, p)}))
		}),
		"add_then_mul_dec": action.New("add_then_mul_dec", func(s, p any) action.Action {
			dec := action.WithFunc(mul, c.transforms["minus1"])
			return action.Return(num(s)+num(p), c.exec.With(action.Options{"a": dec, "p": p}))
		}),
		"op_mul": action.New("op_mul", func(_, p any) action.Action { return action.With(mul, p) }),
		"op_add": action.New("op_add", func(_, p any) action.Action { return action.With(add, p) }),
		"up_foo": action.Pure("up_foo", bump("foo")),
		"up_baz": upBaz,
		"loop":   loop,
	}

	c.mappers = map[string]*mapper.Mapper{
		"bump_bar": mapper.New("bump_bar",
			func(s any) any { return s },
			func(_, next any) action.Action {
				if num(next.(map[string]any)["foo"]) > 1 {
					return action.Return(bump("bar")(next, nil), c.exec.With(action.Options{"a": upBaz}))
				}
				return action.Set(next)
			},
			mapper.WithLogger(logger),
		),
	}

	return c
}

// fire runs the trigger registered by the subscription at idx.
func (c *catalog) fire(idx int, payload any) error {
	c.mu.Lock()
	fn, ok := c.triggers[idx]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("subscription %d is not running", idx)
	}
	fn(payload)
	return nil
}

func (c *catalog) snapshot() (reports []any, starts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any{}, c.reports...), c.starts
}

// bump returns a state transition incrementing key in a map state.
func bump(key string) func(s, _ any) any {
	return func(s, _ any) any {
		next := maps.Clone(s.(map[string]any))
		next[key] = num(next[key]) + 1
		return next
	}
}

// num reads an integer state or payload. YAML decodes integers as int;
// whole floats are accepted for states that went through JSON.
func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	panic(fmt.Sprintf("scenario: %v (%T) is not an integer", v, v))
}
