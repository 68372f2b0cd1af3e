package transaction

import (
	"errors"
	"fmt"
)

// Kind classifies a lifecycle failure.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation_error"
	KindConflict     Kind = "conflict"
)

// Error is a typed lifecycle failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches on kind so wrapped details still satisfy the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Domain errors for transactions.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "transaction not found"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "caller is not a party to the transaction"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "operation not allowed in current state"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "transaction was modified concurrently"}

	// ErrDuplicateBooking is returned by repositories when a booking already has a transaction.
	ErrDuplicateBooking = errors.New("transaction already exists for booking")
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalidState(op string, s State) *Error {
	return newError(KindInvalidState, "cannot %s a transaction in state %s", op, s)
}

func validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// KindOf returns the kind of a lifecycle error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may re-read and retry.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}
