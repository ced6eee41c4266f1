package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodValidate(t *testing.T) {
	valid := []Period{
		{AcademicYear: "2025/2026", Semester: SemesterFirst},
		{AcademicYear: "1999/2000", Semester: SemesterSecond},
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), p.String())
	}

	invalid := []Period{
		{AcademicYear: "2025", Semester: SemesterFirst},
		{AcademicYear: "2025/2027", Semester: SemesterFirst},
		{AcademicYear: "2026/2025", Semester: SemesterFirst},
		{AcademicYear: "25/26", Semester: SemesterFirst},
		{AcademicYear: "abcd/efgh", Semester: SemesterFirst},
		{AcademicYear: "2025/2026", Semester: "Summer"},
		{AcademicYear: "2025/2026", Semester: ""},
		{AcademicYear: "", Semester: SemesterFirst},
	}
	for _, p := range invalid {
		assert.Error(t, p.Validate(), p.String())
	}
}

func TestReservationOverdue(t *testing.T) {
	now := time.Now().UTC()

	live := Reservation{Status: ReservationPending, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, live.Overdue(now))

	past := Reservation{Status: ReservationPending, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, past.Overdue(now))

	// Deadline reached exactly counts as overdue.
	edge := Reservation{Status: ReservationApproved, ExpiresAt: now}
	assert.True(t, edge.Overdue(now))

	// Terminal rows never read as overdue, whatever the deadline says.
	done := Reservation{Status: ReservationConfirmed, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, done.Overdue(now))
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, ReservationTerminal(ReservationPending))
	assert.False(t, ReservationTerminal(ReservationApproved))
	assert.True(t, ReservationTerminal(ReservationConfirmed))
	assert.True(t, ReservationTerminal(ReservationRejected))
	assert.True(t, ReservationTerminal(ReservationExpired))
	assert.True(t, ReservationTerminal(ReservationCancelled))

	assert.False(t, BookingTerminal(BookingPending))
	assert.False(t, BookingTerminal(BookingApproved))
	assert.False(t, BookingTerminal(BookingCheckedIn))
	assert.True(t, BookingTerminal(BookingRejected))
	assert.True(t, BookingTerminal(BookingCheckedOut))
}
