package action

// Dispatch submits an action (with an optional payload) to the host.
type Dispatch func(a Action, payload any)

// Cancel stops a running subscription. One-shot effects return nil.
type Cancel func()

// Options is the option map of an effect descriptor. Values that satisfy
// IsAction are dispatched by the effect and are remapped by mappers.
type Options map[string]any

// EffectFn is the function half of an effect descriptor.
// Its identity is the pointer returned by NewEffect; subscription diffing
// compares effect functions by pointer.
type EffectFn struct {
	name string
	run  func(dispatch Dispatch, opts Options) Cancel
}

// NewEffect creates an effect function.
func NewEffect(name string, run func(dispatch Dispatch, opts Options) Cancel) *EffectFn {
	return &EffectFn{name: name, run: run}
}

// Name returns the name given at construction.
func (e *EffectFn) Name() string {
	return e.name
}

// Run executes the effect. The returned Cancel is nil for one-shot effects.
func (e *EffectFn) Run(dispatch Dispatch, opts Options) Cancel {
	return e.run(dispatch, opts)
}

// With builds an effect descriptor for this function.
func (e *EffectFn) With(opts Options) Effect {
	return Effect{Fn: e, Options: opts}
}

// Effect is an effect descriptor: [fn, options].
type Effect struct {
	Fn      *EffectFn
	Options Options
}

// Same reports whether two descriptors are interchangeable for subscription
// diffing: the same effect function and shallow-equal options.
// Options holding a plain Go func are never the same (see ShallowEqual), so
// such a subscription restarts on every render.
func (e Effect) Same(other Effect) bool {
	return e.Fn == other.Fn && ShallowEqual(e.Options, other.Options)
}
