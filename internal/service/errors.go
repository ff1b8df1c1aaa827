// Package service implements the booking admission engine and the
// payment reconciliation engine on top of narrow store interfaces, so
// the same logic runs against the MySQL repositories in production and
// against in-memory doubles in tests.
package service

import "fmt"

// Kind tags a domain error with a machine-readable category. The
// handler layer is the only place that maps kinds to HTTP status
// codes; nothing below it writes to the response.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindDocumentation      Kind = "documentation_required"
	KindResourceNotFound   Kind = "resource_not_found"
	KindPastDate           Kind = "past_date"
	KindAdvanceNotice      Kind = "insufficient_advance_notice"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindDurationTooLong    Kind = "duration_too_long"
	KindResourceConflict   Kind = "resource_conflict"
	KindUnpaidBalance      Kind = "unpaid_balance"
	KindForbidden          Kind = "forbidden"
	KindCancellationNotice Kind = "cancellation_notice"
)

// Error is a policy rejection or validation failure produced by the
// engines. These are expected business outcomes, not faults: they are
// surfaced with a human-readable reason and never logged as system
// errors.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError returns the *Error inside err, or nil when err is of a
// different type (an infrastructure failure).
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}
