package action

import (
	"errors"
	"fmt"
)

// ShapeError reports a malformed action or effect.
//
// Resolve panics with *ShapeError on misuse; Validate returns it so loaders
// can reject malformed values before they are dispatched.
type ShapeError struct {
	// Code identifies the malformation.
	Code ShapeErrorCode

	// Message is a human-readable description.
	Message string

	// Path locates the offending value, e.g. "head.head" or "effects[1]".
	Path string
}

// ShapeErrorCode categorizes shape errors.
type ShapeErrorCode string

const (
	// ErrCodeNilAction indicates a missing action.
	ErrCodeNilAction ShapeErrorCode = "NIL_ACTION"

	// ErrCodeNilFunc indicates a function action with no function.
	ErrCodeNilFunc ShapeErrorCode = "NIL_FUNC"

	// ErrCodeNilHead indicates a tuple with no head action.
	ErrCodeNilHead ShapeErrorCode = "NIL_HEAD"

	// ErrCodeNilEffect indicates an effect descriptor with no function.
	ErrCodeNilEffect ShapeErrorCode = "NIL_EFFECT"
)

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsShapeError returns true if err is or wraps a *ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// Validate checks that a is well formed without resolving it.
// Function actions are not called, so only the static shape is checked.
func Validate(a Action) error {
	return validate(a, "")
}

func validate(a Action, path string) error {
	switch v := a.(type) {
	case nil:
		return &ShapeError{Code: ErrCodeNilAction, Message: "action is nil", Path: path}
	case *Fn:
		if v == nil || v.fn == nil {
			return &ShapeError{Code: ErrCodeNilFunc, Message: "function action is nil", Path: path}
		}
	case *Tuple:
		if v == nil || v.Action == nil {
			return &ShapeError{Code: ErrCodeNilHead, Message: "tuple has no head action", Path: path}
		}
		return validate(v.Action, join(path, "head"))
	case Result:
		for i, eff := range v.Effects {
			if err := ValidateEffect(eff); err != nil {
				var se *ShapeError
				if errors.As(err, &se) {
					se.Path = join(path, fmt.Sprintf("effects[%d]", i)+suffix(se.Path))
				}
				return err
			}
		}
	}
	return nil
}

// ValidateEffect checks an effect descriptor and every action in its options.
func ValidateEffect(e Effect) error {
	if e.Fn == nil || e.Fn.run == nil {
		return &ShapeError{Code: ErrCodeNilEffect, Message: "effect has no function"}
	}
	for k, v := range e.Options {
		if a, ok := v.(Action); ok && IsAction(a) {
			if err := validate(a, "options."+k); err != nil {
				return err
			}
		}
	}
	return nil
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func suffix(path string) string {
	if path == "" {
		return ""
	}
	return "." + path
}
