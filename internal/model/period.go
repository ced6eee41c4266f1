package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Semester values accepted throughout the system.  The strings match
// what the administrative side stores in system_settings and what
// clients submit, so they are compared verbatim.
const (
	SemesterFirst  = "First Semester"
	SemesterSecond = "Second Semester"
)

// Period identifies the academic window an allocation, booking or
// reservation belongs to.  Uniqueness of occupant-level records is
// always scoped by a Period.
//
// Fields:
//  AcademicYear – session formatted "YYYY/YYYY" with consecutive years.
//  Semester     – one of SemesterFirst or SemesterSecond.
type Period struct {
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

// Validate checks that the academic year has the "YYYY/YYYY" shape with
// consecutive years and that the semester is a known value.  It returns
// a descriptive error for the first problem found, or nil.
func (p Period) Validate() error {
	parts := strings.Split(p.AcademicYear, "/")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return fmt.Errorf("academic year %q must be formatted YYYY/YYYY", p.AcademicYear)
	}
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("academic year %q must be formatted YYYY/YYYY", p.AcademicYear)
	}
	second, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("academic year %q must be formatted YYYY/YYYY", p.AcademicYear)
	}
	if second != first+1 {
		return fmt.Errorf("academic year %q must span consecutive years", p.AcademicYear)
	}
	if p.Semester != SemesterFirst && p.Semester != SemesterSecond {
		return fmt.Errorf("semester %q is not a known semester", p.Semester)
	}
	return nil
}

// String renders the period for logs and broker events.
func (p Period) String() string {
	return p.AcademicYear + " " + p.Semester
}
