package host

import "github.com/roach88/slicemap/internal/action"

// activeSub is one subscription slot. A zero value is an empty slot.
type activeSub struct {
	effect action.Effect
	cancel action.Cancel
}

func (s activeSub) active() bool {
	return s.effect.Fn != nil
}

// patchSubs diffs next against the running subscriptions by position.
//
// A slot keeps running when its descriptor has the same effect function
// and shallow-equal options; otherwise the old one is cancelled and the new
// one started. A descriptor with a nil Fn leaves its slot empty. Mappers
// memoize descriptors, so a mapped subscription rebuilt on every render
// still compares equal.
func (a *App) patchSubs(next []action.Effect) {
	a.mu.Lock()
	old := a.subs
	a.mu.Unlock()

	out := make([]activeSub, len(next))
	for i := range max(len(old), len(next)) {
		var prev activeSub
		if i < len(old) {
			prev = old[i]
		}
		if i >= len(next) {
			a.cancel(prev)
			continue
		}

		n := next[i]
		switch {
		case n.Fn == nil:
			a.cancel(prev)
		case prev.active() && prev.effect.Same(n):
			out[i] = prev
		default:
			a.cancel(prev)
			a.record(KindSubscribe, n.Fn.Name(), n.Options, a.State())
			out[i] = activeSub{effect: n, cancel: n.Fn.Run(a.dispatchFromEffect, n.Options)}
		}
	}

	a.mu.Lock()
	a.subs = out
	a.mu.Unlock()
}

func (a *App) cancel(s activeSub) {
	if !s.active() {
		return
	}
	a.record(KindUnsubscribe, s.effect.Fn.Name(), s.effect.Options, a.State())
	if s.cancel != nil {
		s.cancel()
	}
}

func (a *App) cancelAll(subs []activeSub) {
	for _, s := range subs {
		a.cancel(s)
	}
}
