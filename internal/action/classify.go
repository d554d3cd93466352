package action

// Kind identifies the variant of an Action.
type Kind int

const (
	// KindInvalid is reported for nil and for nil pointers.
	KindInvalid Kind = iota
	// KindFunc is a function action (*Fn).
	KindFunc
	// KindValue is a literal next state (Value).
	KindValue
	// KindTuple is an action with a payload transform (*Tuple).
	KindTuple
	// KindResult is a literal result (Result).
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindValue:
		return "value"
	case KindTuple:
		return "tuple"
	case KindResult:
		return "result"
	default:
		return "invalid"
	}
}

// KindOf classifies an action.
func KindOf(a Action) Kind {
	switch v := a.(type) {
	case *Fn:
		if v == nil {
			return KindInvalid
		}
		return KindFunc
	case Value:
		return KindValue
	case *Tuple:
		if v == nil {
			return KindInvalid
		}
		return KindTuple
	case Result:
		return KindResult
	default:
		return KindInvalid
	}
}

// IsFunction reports whether x is a function action.
func IsFunction(x any) bool {
	f, ok := x.(*Fn)
	return ok && f != nil
}

// IsAction reports whether x is something a host would dispatch: a
// function action, or a tuple whose head is itself an action.
// Values and results are states, not dispatchable actions.
func IsAction(x any) bool {
	if IsFunction(x) {
		return true
	}
	t, ok := x.(*Tuple)
	return ok && t != nil && IsAction(t.Action)
}
