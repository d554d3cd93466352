// Package memo provides the memo tables a mapper owns.
//
// A table lives on its owner and dies with it. Weak tables hold neither
// their keys nor their values: an entry stays usable while something else
// keeps the derived value alive, and is dropped once the value is
// collected. Identity stability only matters to callers that still hold a
// previously derived value, so a collected value is never observed to
// change.
//
// List tables hold their entries strongly and never evict. They back
// effect memoization, whose keys come from statically defined effect
// functions, so growth is bounded by the program text in the steady state.
package memo

import (
	"runtime"
	"sync"
	"weak"
)

// Weak memoizes one derived *V per *K without keeping either reachable.
//
// Use NewWeak; the zero value is not ready to use.
type Weak[K, V any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[K]]weak.Pointer[V]
}

// NewWeak creates an empty weak table.
func NewWeak[K, V any]() *Weak[K, V] {
	return &Weak[K, V]{entries: make(map[weak.Pointer[K]]weak.Pointer[V])}
}

// GetOrInsert returns the live value derived from key, computing and
// storing it when there is none. The second return value reports a hit.
//
// compute runs outside the table lock, so it may call back into the same
// table. Concurrent misses on one key may each compute; only the first
// stored value is returned to every caller.
func (t *Weak[K, V]) GetOrInsert(key *K, compute func() *V) (*V, bool) {
	wk := weak.Make(key)
	if v := t.lookup(wk); v != nil {
		return v, true
	}

	v := compute()

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev := t.entries[wk].Value(); prev != nil {
		return prev, true
	}
	t.entries[wk] = weak.Make(v)
	runtime.AddCleanup(v, t.forget, wk)
	return v, false
}

func (t *Weak[K, V]) lookup(wk weak.Pointer[K]) *V {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[wk].Value()
}

// forget drops the entry for wk unless it was replaced by a live value.
func (t *Weak[K, V]) forget(wk weak.Pointer[K]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[wk].Value() == nil {
		delete(t.entries, wk)
	}
}

// Len returns the number of stored entries, including entries whose value
// was collected but whose cleanup has not run yet.
func (t *Weak[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// List memoizes derived values per owner under a secondary key that is
// compared with a caller-supplied equality instead of ==.
//
// It backs effect memoization, where the secondary key is an options map
// that is rebuilt on every render and can only be compared shallowly.
// The zero value is ready to use. A List must not be copied after first use.
type List[K, V any] struct {
	mu      sync.Mutex
	entries map[any][]entry[K, V]
}

type entry[K, V any] struct {
	key   K
	value V
}

// GetOrInsert returns the first stored value for owner whose key is equal
// to key under eq, computing and appending a new entry when none matches.
// The second return value reports a hit.
//
// compute runs under the list lock and must not call back into the list.
func (l *List[K, V]) GetOrInsert(owner any, key K, eq func(a, b K) bool, compute func() V) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries[owner] {
		if eq(e.key, key) {
			return e.value, true
		}
	}
	if l.entries == nil {
		l.entries = make(map[any][]entry[K, V])
	}
	v := compute()
	l.entries[owner] = append(l.entries[owner], entry[K, V]{key: key, value: v})
	return v, false
}

// Len returns the number of entries stored for owner.
func (l *List[K, V]) Len(owner any) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[owner])
}
