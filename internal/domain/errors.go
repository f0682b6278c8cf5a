package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a failure.
type Kind string

const (
	KindUnknownCountry       Kind = "UnknownCountry"
	KindUnknownCurrency      Kind = "UnknownCurrency"
	KindUnknownItem          Kind = "UnknownItem"
	KindUnknownIdentity      Kind = "UnknownIdentity"
	KindAccountLocked        Kind = "AccountLocked"
	KindInjectedFault        Kind = "InjectedFault"
	KindMissingRequiredField Kind = "MissingRequiredField"
	KindInvalidFieldFormat   Kind = "InvalidFieldFormat"
	KindUnauthenticated      Kind = "Unauthenticated"
	KindAccessDenied         Kind = "AccessDenied"
	KindNotFound             Kind = "NotFound"
	KindInternal             Kind = "Internal"
)

// Error is a classified failure. All kinds are terminal for the current call.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input, when there is one.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FieldError builds a classified error bound to one input field.
func FieldError(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrDuplicateOrderID is returned by an order store when an id is already taken.
var ErrDuplicateOrderID = errors.New("duplicate order id")
