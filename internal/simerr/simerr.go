// Package simerr defines the typed error kinds the core raises (spec §7).
// Transport layers map Kind to a wire status code; core packages never
// import net/http.
package simerr

import "fmt"

// Kind is one of the error classes spec §7 enumerates.
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindUnauthenticated   Kind = "unauthenticated"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindPdtViolation      Kind = "pdt_violation"
	KindNotImplemented    Kind = "not_implemented"
	KindUnavailable       Kind = "unavailable"
)

// Error is a single field-tagged failure.
type Error struct {
	Kind    Kind
	Field   string // optional: the offending field name
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no offending field.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Field builds an *Error tagged with the offending field name.
func Field(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying cause as its unwrap target.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Errors aggregates multiple validation failures into a single error, in
// the style of libs/risk.Violations: every rule runs, and all violations
// are reported together rather than stopping at the first one.
type Errors []*Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "no errors"
	}
	msg := es[0].Error()
	if len(es) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(es)-1)
	}
	return msg
}

// IsEmpty reports whether there are no accumulated errors.
func (es Errors) IsEmpty() bool { return len(es) == 0 }

// First returns the first error, or nil if es is empty. Spec §7 requires
// "the first field highlighted" in a validator's aggregate response.
func (es Errors) First() *Error {
	if len(es) == 0 {
		return nil
	}
	return es[0]
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, defaulting
// to KindUnavailable for unrecognized errors so downstream transports fail
// closed rather than leaking a 200.
func KindOf(err error) Kind {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind
	}
	return KindUnavailable
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
