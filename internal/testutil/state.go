package testutil

import (
	"io"
	"log/slog"
)

// Obj builds a map[string]any state from alternating keys and values.
//
//	Obj("foo", 2, "bar", Obj("baz", 1))
func Obj(kv ...any) map[string]any {
	if len(kv)%2 != 0 {
		panic("testutil.Obj: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

// Get reads a nested key path from a map[string]any state. Missing keys
// and non-map intermediates read as nil.
func Get(state any, path ...string) any {
	for _, k := range path {
		m, ok := state.(map[string]any)
		if !ok {
			return nil
		}
		state = m[k]
	}
	return state
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
