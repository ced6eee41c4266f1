// Package service implements the allocation core: the atomic bed
// assignment transaction, the reservation lifecycle, the occupancy
// ledger and the booking policy gate.  Services return typed errors and
// never panic across the package boundary; the HTTP layer maps each
// error kind to a status code.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a service error for the caller.
//
//   - KindConflict: expected contention (bed taken, duplicate intent).
//     Never retried by the core; the caller picks another bed or stops.
//   - KindPolicy: administratively blocked (booking disabled, wrong
//     period) or not permitted for this caller.
//   - KindValidation: malformed or unresolvable input, rejected before
//     any storage side effect survives.
//   - KindNotFound: the addressed resource does not exist.
//   - KindTransient: infrastructure trouble (storage unreachable,
//     lock-wait timeout).  Safe for the caller to retry with backoff;
//     never presented to an end user as a bed-availability answer.
type Kind int

const (
	KindConflict Kind = iota + 1
	KindPolicy
	KindValidation
	KindNotFound
	KindTransient
)

// Error is the typed error all services return.  Message is safe to
// surface to end users verbatim.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

func conflict(code, msg string) *Error   { return &Error{Kind: KindConflict, Code: code, Message: msg} }
func policy(code, msg string) *Error     { return &Error{Kind: KindPolicy, Code: code, Message: msg} }
func validation(code, msg string) *Error { return &Error{Kind: KindValidation, Code: code, Message: msg} }
func notFound(code, msg string) *Error   { return &Error{Kind: KindNotFound, Code: code, Message: msg} }

// Transient wraps an infrastructure failure.  The cause is preserved
// for logs but the message shown to callers stays generic.
func Transient(cause error) *Error {
	return &Error{Kind: KindTransient, Code: "STORAGE", Message: "storage temporarily unavailable", cause: cause}
}

// Conflict errors.  The messages are part of the external contract.
var (
	ErrBedUnavailable      = conflict("BED_UNAVAILABLE", "Bed is already occupied")
	ErrRoomFull            = conflict("ROOM_FULL", "Room is full")
	ErrAlreadyAllocated    = conflict("ALREADY_ALLOCATED", "You already have an active accommodation for this semester")
	ErrBookingInFlight     = conflict("BOOKING_IN_FLIGHT", "A booking for this semester is already in progress")
	ErrReservationInFlight = conflict("RESERVATION_IN_FLIGHT", "An active reservation already exists for this semester")
	ErrAllocationInactive  = conflict("ALLOCATION_INACTIVE", "Accommodation is not active")
	ErrAlreadyCheckedIn    = conflict("ALREADY_CHECKED_IN", "Accommodation is already checked in")
	ErrReservationExpired  = conflict("RESERVATION_EXPIRED", "Reservation has expired")
)

// Policy errors.
var (
	ErrBookingDisabled     = policy("BOOKING_DISABLED", "Booking is currently disabled")
	ErrReservationDisabled = policy("RESERVATION_DISABLED", "Reservation is currently disabled")
	ErrPeriodMismatch      = policy("PERIOD_MISMATCH", "Requested period is outside the current academic session")
	ErrNotYours            = policy("FORBIDDEN", "You may not modify this reservation")
)

// Validation errors.
var (
	ErrUnknownOccupant      = validation("UNKNOWN_OCCUPANT", "Occupant does not exist")
	ErrUnknownBed           = validation("UNKNOWN_BED", "Bed does not exist")
	ErrUnknownRoom          = validation("UNKNOWN_ROOM", "Room does not exist")
	ErrBedNotInRoom         = validation("BED_NOT_IN_ROOM", "Bed does not belong to the selected room")
	ErrRoomInactive         = validation("ROOM_INACTIVE", "Room is not open for allocation")
	ErrUnknownAccommodation = validation("UNKNOWN_ACCOMMODATION", "Accommodation does not exist")
)

// Not-found errors for plain lookups.
var ErrReservationNotFound = notFound("RESERVATION_NOT_FOUND", "Reservation not found")

func invalidPeriod(cause error) *Error {
	return &Error{Kind: KindValidation, Code: "INVALID_PERIOD", Message: cause.Error(), cause: cause}
}

func invalidTransition(from, to string) *Error {
	return conflict("INVALID_TRANSITION",
		fmt.Sprintf("Reservation cannot move from %s to %s", from, to))
}

// KindOf returns the Kind of a service error, or 0 for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// outcomeLabel derives the metrics label from a service error.
func outcomeLabel(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return strings.ToLower(e.Code)
	}
	return "error"
}
