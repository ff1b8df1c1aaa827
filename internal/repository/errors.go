// Package repository defines the data access layer over MySQL along
// with sentinel error values reused across repositories. The sentinels
// let the service and handler layers distinguish failure scenarios
// without inspecting driver errors: ErrForbidden maps to 403,
// ErrConflict to 409, the *NotFound values to 404 and
// ErrDuplicateEvent marks a webhook delivery that was already applied.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot proceed due
// to conflicting state, such as an overlapping booking for the same
// room and time range.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when a room id does not reference an
// existing (or active, depending on the query) room.
var ErrRoomNotFound = errors.New("room not found")

// ErrBookingNotFound is returned when a booking id does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPaymentNotFound is returned when no payment matches the lookup.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrDuplicateEvent is returned when a webhook event id has already
// been recorded. Callers treat it as "already applied" and acknowledge
// without reapplying side effects.
var ErrDuplicateEvent = errors.New("event already recorded")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062). Relying on the unique constraint and translating the
// violation is what makes insert-if-absent paths race-free.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
