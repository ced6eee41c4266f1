package model

import "time"

// Reservation statuses.  PENDING and APPROVED are live; CONFIRMED,
// REJECTED, EXPIRED and CANCELLED are terminal, after which a new
// reservation may be created for the same occupant and period.
const (
	ReservationPending   = "PENDING"
	ReservationApproved  = "APPROVED"
	ReservationConfirmed = "CONFIRMED"
	ReservationRejected  = "REJECTED"
	ReservationExpired   = "EXPIRED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is a soft, non-binding hold expressing intent to book for
// a period.  It never grants bed-level exclusivity by itself; only the
// allocation transaction does that.  Preferences are hints for staff,
// not constraints.
//
// Fields:
//  ID                – primary key identifier.
//  StudentID         – occupant expressing intent.
//  AcademicYear      – session, "YYYY/YYYY".
//  Semester          – semester within the session.
//  Status            – current lifecycle state.
//  Reference         – human-auditable token quoted in correspondence.
//  PreferredHostelID – optional hostel preference.
//  PreferredRoomType – optional room-type preference.
//  SpecialRequests   – free-form notes from the occupant.
//  CreatedAt         – creation timestamp.
//  ExpiresAt         – hold deadline; past it the reservation reads as
//                      EXPIRED regardless of the stored status.
//  UpdatedAt         – last update timestamp.
type Reservation struct {
	ID                uint64    // reservations.id
	StudentID         uint64    // reservations.student_id
	AcademicYear      string    // reservations.academic_year
	Semester          string    // reservations.semester
	Status            string    // reservations.status
	Reference         string    // reservations.reference
	PreferredHostelID *uint64   // reservations.preferred_hostel_id (nullable)
	PreferredRoomType *string   // reservations.preferred_room_type (nullable)
	SpecialRequests   string    // reservations.special_requests
	CreatedAt         time.Time // reservations.created_at
	ExpiresAt         time.Time // reservations.expires_at
	UpdatedAt         time.Time // reservations.updated_at
}

// ReservationTerminal reports whether a reservation status is terminal
// for the uniqueness invariant.
func ReservationTerminal(status string) bool {
	switch status {
	case ReservationConfirmed, ReservationRejected, ReservationExpired, ReservationCancelled:
		return true
	}
	return false
}

// Overdue reports whether the reservation has outlived its hold window
// at the given instant while still in a live state.  Expiry is enforced
// lazily at read time; callers use this to decide when a stored status
// should be read (and opportunistically rewritten) as EXPIRED.
func (r Reservation) Overdue(now time.Time) bool {
	return !ReservationTerminal(r.Status) && !r.ExpiresAt.After(now)
}

// Period returns the academic period the reservation is scoped to.
func (r Reservation) Period() Period {
	return Period{AcademicYear: r.AcademicYear, Semester: r.Semester}
}
