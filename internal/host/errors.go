package host

import (
	"errors"
	"fmt"
)

// HostError represents an error detected while dispatching.
//
// Host errors include:
//   - Missing target: an event names an element id that is not rendered
//   - Missing handler: the element has no handler for the event
//   - Not an action: a dispatched value or handler is not an action
//   - Quota exceeded: one drain ran more steps than allowed
//   - Stopped: the app was stopped or its context cancelled
type HostError struct {
	// Code identifies the error category.
	Code HostErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the affected session.
	Session string

	// Details contains additional context.
	Details map[string]string
}

// HostErrorCode categorizes host errors.
type HostErrorCode string

const (
	// ErrCodeNoTarget indicates no rendered element has the event's target id.
	ErrCodeNoTarget HostErrorCode = "NO_TARGET"

	// ErrCodeNoHandler indicates the target element has no handler for the event.
	ErrCodeNoHandler HostErrorCode = "NO_HANDLER"

	// ErrCodeNotAction indicates a dispatched value is not an action.
	ErrCodeNotAction HostErrorCode = "NOT_ACTION"

	// ErrCodeQuotaExceeded indicates a drain exceeded max steps.
	ErrCodeQuotaExceeded HostErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeStopped indicates the app no longer accepts dispatches.
	ErrCodeStopped HostErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.Session)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	return hasCode(err, ErrCodeQuotaExceeded)
}

// IsTargetError returns true if an event could not be routed to a handler.
func IsTargetError(err error) bool {
	return hasCode(err, ErrCodeNoTarget) || hasCode(err, ErrCodeNoHandler)
}

// IsStoppedError returns true if the app was stopped.
func IsStoppedError(err error) bool {
	return hasCode(err, ErrCodeStopped)
}

func hasCode(err error, code HostErrorCode) bool {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

// NewQuotaError creates a HostError for a drain that exceeded maxSteps.
func NewQuotaError(session string, steps, maxSteps int) *HostError {
	return &HostError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("drain exceeded max steps (%d > %d)", steps, maxSteps),
		Session: session,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

func newTargetError(session, target, event string) *HostError {
	return &HostError{
		Code:    ErrCodeNoTarget,
		Message: fmt.Sprintf("no element with id %q", target),
		Session: session,
		Details: map[string]string{"target": target, "event": event},
	}
}

func newHandlerError(session, target, event string) *HostError {
	return &HostError{
		Code:    ErrCodeNoHandler,
		Message: fmt.Sprintf("element %q has no %q handler", target, event),
		Session: session,
		Details: map[string]string{"target": target, "event": event},
	}
}

func newNotActionError(session string, v any) *HostError {
	return &HostError{
		Code:    ErrCodeNotAction,
		Message: fmt.Sprintf("%T is not an action", v),
		Session: session,
	}
}

func newStoppedError(session string, cause error) *HostError {
	msg := "app is stopped"
	if cause != nil {
		msg = fmt.Sprintf("app is stopped: %v", cause)
	}
	return &HostError{Code: ErrCodeStopped, Message: msg, Session: session}
}
