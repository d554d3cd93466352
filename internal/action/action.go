package action

// Action is a sealed interface over the action variants.
// Only *Fn, Value, *Tuple and Result implement it.
type Action interface {
	action() // Sealed
}

// Fn is a function action. Its identity is the pointer returned by New.
type Fn struct {
	name string
	fn   func(state, payload any) Action
}

func (*Fn) action() {}

// New creates a function action. name is used for traces and logs only.
func New(name string, fn func(state, payload any) Action) *Fn {
	return &Fn{name: name, fn: fn}
}

// Pure creates a function action from a plain state transition.
// The returned state is wrapped in Value.
func Pure(name string, fn func(state, payload any) any) *Fn {
	return New(name, func(state, payload any) Action {
		return Value{V: fn(state, payload)}
	})
}

// Name returns the name given at construction.
func (f *Fn) Name() string {
	return f.name
}

// Call invokes the underlying function.
func (f *Fn) Call(state, payload any) Action {
	return f.fn(state, payload)
}

// Value is a value action: the literal next state.
type Value struct {
	V any
}

func (Value) action() {}

// Set is a shorthand for Value{V: v}.
func Set(v any) Value {
	return Value{V: v}
}

// Transform rewrites the payload of a tuple before its head is resolved.
// Only PayloadFunc and PayloadConst implement it.
type Transform interface {
	apply(payload any) any
}

// PayloadFunc computes the new payload from the dispatched one.
type PayloadFunc func(payload any) any

func (f PayloadFunc) apply(payload any) any { return f(payload) }

// PayloadConst substitutes a literal payload.
type PayloadConst struct {
	V any
}

func (c PayloadConst) apply(any) any { return c.V }

// Tuple pairs an action with a payload transform.
// Its identity is the pointer returned by With or WithFunc.
type Tuple struct {
	Action    Action
	Transform Transform
}

func (*Tuple) action() {}

// With creates a tuple whose head is resolved with a literal payload.
func With(a Action, payload any) *Tuple {
	return &Tuple{Action: a, Transform: PayloadConst{V: payload}}
}

// WithFunc creates a tuple whose head is resolved with fn(payload).
func WithFunc(a Action, fn func(payload any) any) *Tuple {
	return &Tuple{Action: a, Transform: PayloadFunc(fn)}
}

// Result is the fully resolved outcome of an action.
// State is never itself an action or effect.
type Result struct {
	State   any
	Effects []Effect
}

func (Result) action() {}

// Return builds a Result.
func Return(state any, effects ...Effect) Result {
	return Result{State: state, Effects: effects}
}

// Label returns a human-readable name for an action, used in traces.
func Label(a Action) string {
	switch v := a.(type) {
	case *Fn:
		if v == nil {
			return "<nil>"
		}
		return v.name
	case *Tuple:
		if v == nil {
			return "<nil>"
		}
		return Label(v.Action)
	case Value:
		return "value"
	case Result:
		return "result"
	default:
		return "<nil>"
	}
}
