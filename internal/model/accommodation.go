package model

import "time"

// Accommodation is the durable record binding one occupant to one bed
// for one academic period.  Rows are created exclusively by the
// allocation transaction and deactivated (never hard-deleted) on
// checkout.  For a given bed and period at most one row is active.
//
// Fields:
//  ID           – primary key identifier.
//  StudentID    – occupant holding the bed.
//  RoomID       – room the bed belongs to, denormalized for reporting.
//  BedID        – allocated bed.  Nullable only for legacy rows that
//                 predate bed-level tracking.
//  AcademicYear – session, "YYYY/YYYY".
//  Semester     – semester within the session.
//  IsActive     – whether the occupant currently holds the bed.
//  AllocatedAt  – when the allocation transaction committed.
//  CheckedInAt  – when the occupant physically checked in, if ever.
//  CheckedOutAt – when the accommodation was deactivated, if ever.
type Accommodation struct {
	ID           uint64     // accommodations.id
	StudentID    uint64     // accommodations.student_id
	RoomID       uint64     // accommodations.room_id
	BedID        *uint64    // accommodations.bed_id (nullable, legacy data)
	AcademicYear string     // accommodations.academic_year
	Semester     string     // accommodations.semester
	IsActive     bool       // accommodations.is_active
	AllocatedAt  time.Time  // accommodations.allocated_at
	CheckedInAt  *time.Time // accommodations.checked_in_at (nullable)
	CheckedOutAt *time.Time // accommodations.checked_out_at (nullable)
}

// Period returns the academic period the accommodation is scoped to.
func (a Accommodation) Period() Period {
	return Period{AcademicYear: a.AcademicYear, Semester: a.Semester}
}
