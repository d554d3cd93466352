package action

// Resolve fully resolves an action against state and payload.
//
//   - *Fn: the function is called and its result resolved with no payload
//   - Value: the value becomes the new state
//   - *Tuple: the payload is transformed (a nil transform clears it) and
//     the head resolved
//   - Result: returned as-is
//
// A nil action resolves to a Result with a nil state; callers decide what
// that means. Malformed shapes panic with *ShapeError.
func Resolve(a Action, state, payload any) Result {
	for {
		switch v := a.(type) {
		case nil:
			return Result{}
		case *Fn:
			if v == nil || v.fn == nil {
				panic(&ShapeError{Code: ErrCodeNilFunc, Message: "function action is nil"})
			}
			a, payload = v.fn(state, payload), nil
		case Value:
			return Result{State: v.V}
		case *Tuple:
			if v == nil || v.Action == nil {
				panic(&ShapeError{Code: ErrCodeNilHead, Message: "tuple has no head action"})
			}
			if v.Transform != nil {
				payload = v.Transform.apply(payload)
			} else {
				payload = nil
			}
			a = v.Action
		case Result:
			return v
		default:
			return Result{}
		}
	}
}
