// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to chain errors without resorting
// to fmt.Errorf("%w", err).
//
// Sentinel errors built with New remain comparable with
// errors.Is after they have wrapped a cause or gained extra
// message context.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New builds a sentinel Error from a message
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error with an optional wrapped cause. Deriving from a
// sentinel with Wrap or WrapMessage keeps the derived error matching
// that sentinel under errors.Is.
type Error struct {
	msg  string
	err  error
	base *Error
}

// Error message, including the chain of wrapped causes
func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap the nested cause
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// Wrap a cause under this error. The receiver is not mutated:
// a new Error is returned so that package-level sentinels can be
// safely wrapped by concurrent callers.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, base: e.root()}
}

// WrapMessage wraps a cause and appends extra context to the message
func (e *Error) WrapMessage(err error, format string, args ...interface{}) *Error {
	return &Error{msg: e.msg + " [" + fmt.Sprintf(format, args...) + "]", err: err, base: e.root()}
}

// Is reports whether this error matches or derives from the target sentinel
func (e *Error) Is(target error) bool {
	if o, ok := target.(*Error); ok {
		return e == o || e.root() == o.root()
	}
	return false
}

// As finds the first error in err's chain that matches target
// (a shortcut to the standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to the standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
