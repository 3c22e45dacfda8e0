package scheduling

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnavailable
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthenticated:
		return "unauthenticated"
	}
	return "internal"
}

// Retryable reports whether the same request may succeed if sent again unchanged.
func (k Kind) Retryable() bool {
	return k == KindUnavailable
}

// Error is the only error type the Engine returns.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// NewError builds an Error for collaborators (identity, transports) that
// share the taxonomy.
func NewError(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func errorf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an Engine error, or KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalid(format string, args ...any) *Error {
	return errorf(KindValidation, format, args...)
}

func forbidden(format string, args ...any) *Error {
	return errorf(KindForbidden, format, args...)
}

func notFound(format string, args ...any) *Error {
	return errorf(KindNotFound, format, args...)
}

var (
	errConflict    = &Error{Kind: KindConflict, Msg: "time conflicts with existing appointment"}
	errUnavailable = &Error{Kind: KindUnavailable, Msg: "service temporarily unavailable, try again"}
)
