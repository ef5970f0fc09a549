// Package fault defines the error taxonomy shared by the locator, executor
// and browser layers. Each error carries a class so the executor can decide
// retry policy without string matching.
package fault

import (
	"errors"
	"fmt"
)

// Class identifies what went wrong.
type Class int

const (
	// Targeting: an element could not be resolved or verified.
	Targeting Class = iota + 1
	// Oracle: the vision model call or its response parsing failed.
	Oracle
	// Interaction: the physical click/type failed after resolution.
	Interaction
	// Assertion: the element was found but its content did not match.
	Assertion
	// Navigation: a page load fault.
	Navigation
)

func (c Class) String() string {
	switch c {
	case Targeting:
		return "targeting"
	case Oracle:
		return "oracle"
	case Interaction:
		return "interaction"
	case Assertion:
		return "assertion"
	case Navigation:
		return "navigation"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Class Class
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error.
func New(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a class to an underlying error.
func Wrap(class Class, err error, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ClassOf returns the class of err, or 0 if err is not classified.
func ClassOf(err error) Class {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return 0
}

// Retryable reports whether the failure may be flakiness rather than a
// semantic mismatch. Assertion mismatches are never retried: retrying a
// wrong assertion cannot make it right.
func Retryable(err error) bool {
	switch ClassOf(err) {
	case Targeting, Oracle, Interaction:
		return true
	default:
		return false
	}
}
