// Package apperr defines the error kinds shared by the domain services and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	InvalidState
	PreconditionFailed
	Conflict
	Unauthenticated
	Forbidden
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case PreconditionFailed:
		return "precondition_failed"
	case Conflict:
		return "conflict"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Details carries extra identifiers,
// e.g. every missing product id of a batch lookup.
type Error struct {
	Kind    Kind
	Msg     string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var inner *Error
	if errors.As(e.Err, &inner) && inner.Msg == e.Msg {
		return inner.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithDetails returns a copy of e wrapping e itself, so errors.Is against
// the original sentinel still matches.
func (e *Error) WithDetails(details ...string) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Details: details, Err: e}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind. PreconditionFailed is a
// refinement of InvalidState and matches both.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	if k == kind {
		return true
	}
	return kind == InvalidState && k == PreconditionFailed
}

// DetailsOf collects Details from the outermost *Error that has any.
func DetailsOf(err error) []string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil
		}
		if len(e.Details) > 0 {
			return e.Details
		}
		err = e.Err
	}
	return nil
}
