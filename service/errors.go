package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure. The HTTP layer maps kinds to status codes.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindInvalidState  ErrorKind = "invalid_state"
	KindForbidden     ErrorKind = "forbidden"
	KindValidation    ErrorKind = "validation"
	KindSystemFailure ErrorKind = "system_failure"
)

// DomainError is returned by every service operation that fails for a domain reason.
type DomainError struct {
	Kind    ErrorKind
	Op      string
	Message string
}

func (e *DomainError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

// Is matches any DomainError of the same kind, so errors.Is(err, ErrNotFound) works
// for every not-found failure regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

var (
	ErrNotFound      = &DomainError{Kind: KindNotFound}
	ErrInvalidState  = &DomainError{Kind: KindInvalidState}
	ErrForbidden     = &DomainError{Kind: KindForbidden}
	ErrValidation    = &DomainError{Kind: KindValidation}
	ErrSystemFailure = &DomainError{Kind: KindSystemFailure}
)

func newError(kind ErrorKind, op, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func notFound(op, format string, args ...interface{}) error {
	return newError(KindNotFound, op, format, args...)
}

func invalidState(op, format string, args ...interface{}) error {
	return newError(KindInvalidState, op, format, args...)
}

func forbidden(op, format string, args ...interface{}) error {
	return newError(KindForbidden, op, format, args...)
}

func validationError(op, format string, args ...interface{}) error {
	return newError(KindValidation, op, format, args...)
}

func systemFailure(op, format string, args ...interface{}) error {
	return newError(KindSystemFailure, op, format, args...)
}

// KindOf returns the kind of the first DomainError in err's chain, or "" for
// errors that are not domain errors (storage faults and the like).
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
