package model

import "time"

// Booking statuses.  PENDING, APPROVED and CHECKED_IN are in-flight;
// REJECTED and CHECKED_OUT are terminal for the
// one-non-terminal-booking-per-occupant-and-period invariant.
const (
	BookingPending    = "PENDING"
	BookingApproved   = "APPROVED"
	BookingRejected   = "REJECTED"
	BookingCheckedIn  = "CHECKED_IN"
	BookingCheckedOut = "CHECKED_OUT"
)

// Booking is the audit trail of an allocation attempt.  It either
// precedes an accommodation (a student files a request that staff later
// satisfy) or accompanies one (the allocation transaction records the
// approval itself).
type Booking struct {
	ID           uint64    // bookings.id
	StudentID    uint64    // bookings.student_id
	AcademicYear string    // bookings.academic_year
	Semester     string    // bookings.semester
	Status       string    // bookings.status
	CreatedAt    time.Time // bookings.created_at
	UpdatedAt    time.Time // bookings.updated_at
}

// BookingTerminal reports whether a booking status is terminal.
func BookingTerminal(status string) bool {
	switch status {
	case BookingRejected, BookingCheckedOut:
		return true
	}
	return false
}
