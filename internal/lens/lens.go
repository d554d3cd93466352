// Package lens provides extract/merge pairs focusing a slice of a state
// tree built from map[string]any values.
package lens

import (
	"maps"
	"strings"
)

// Lens focuses an inner slice of an outer state.
//
// Extract reads the slice. Merge returns a new outer state with the slice
// replaced and must not mutate its arguments.
type Lens struct {
	Name    string
	Extract func(outer any) any
	Merge   func(outer, inner any) any
}

// Key focuses one key of a map[string]any state.
// A missing key extracts as nil; merging into a non-map outer state starts
// from an empty map.
func Key(key string) Lens {
	return Lens{
		Name: key,
		Extract: func(outer any) any {
			m, _ := outer.(map[string]any)
			return m[key]
		},
		Merge: func(outer, inner any) any {
			m, _ := outer.(map[string]any)
			out := make(map[string]any, len(m)+1)
			maps.Copy(out, m)
			out[key] = inner
			return out
		},
	}
}

// Path focuses a nested key path. Path() is the identity lens.
func Path(keys ...string) Lens {
	l := Identity()
	for _, k := range keys {
		l = Compose(l, Key(k))
	}
	if len(keys) > 0 {
		l.Name = strings.Join(keys, ".")
	}
	return l
}

// Compose focuses inner within outer.
func Compose(outer, inner Lens) Lens {
	return Lens{
		Name: joinNames(outer.Name, inner.Name),
		Extract: func(s any) any {
			return inner.Extract(outer.Extract(s))
		},
		Merge: func(s, v any) any {
			return outer.Merge(s, inner.Merge(outer.Extract(s), v))
		},
	}
}

// Identity focuses the whole state.
func Identity() Lens {
	return Lens{
		Extract: func(s any) any { return s },
		Merge:   func(_, v any) any { return v },
	}
}

func joinNames(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
