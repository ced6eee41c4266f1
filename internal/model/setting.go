package model

import "time"

// Setting names consumed by the policy gate.  Values live in the
// system_settings table and are changed only through an administrative
// path; this service reads them.
const (
	SettingBookingEnabled      = "booking_enabled"
	SettingReservationEnabled  = "reservation_enabled"
	SettingCurrentAcademicYear = "current_academic_year"
	SettingCurrentSemester     = "current_semester"
)

// Setting is a single system_settings row.
type Setting struct {
	Name      string    // system_settings.name
	Value     string    // system_settings.value
	UpdatedAt time.Time // system_settings.updated_at
}
