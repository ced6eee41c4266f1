package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// BookingRepo provides access to the bookings table, the audit trail of
// allocation attempts.  At most one non-terminal booking exists per
// occupant and period; the services enforce that under the occupant's
// user-row lock.
type BookingRepo struct {
	db *database.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *database.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking within an existing transaction and
// populates the generated ID and timestamps.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (student_id, academic_year, semester, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.StudentID, b.AcademicYear, b.Semester, b.Status, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// bookingLiveStatuses returns the statuses counted as in-flight,
// derived from model.BookingTerminal so query and model cannot drift.
func bookingLiveStatuses() []string {
	all := []string{model.BookingPending, model.BookingApproved, model.BookingRejected,
		model.BookingCheckedIn, model.BookingCheckedOut}
	live := make([]string, 0, len(all))
	for _, s := range all {
		if !model.BookingTerminal(s) {
			live = append(live, s)
		}
	}
	return live
}

// NonTerminalForStudentTx returns the occupant's in-flight booking for
// the period under the dialect's row lock, or sql.ErrNoRows.
func (r *BookingRepo) NonTerminalForStudentTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period) (*model.Booking, error) {
	live := bookingLiveStatuses()
	args := []interface{}{studentID, period.AcademicYear, period.Semester}
	for _, s := range live {
		args = append(args, s)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(live)), ", ")

	var b model.Booking
	err := tx.QueryRowContext(ctx,
		`SELECT id, student_id, academic_year, semester, status, created_at, updated_at
		 FROM bookings
		 WHERE student_id = ? AND academic_year = ? AND semester = ? AND status IN (`+placeholders+`)
		 LIMIT 1`+r.db.ForUpdate(), args...).
		Scan(&b.ID, &b.StudentID, &b.AcademicYear, &b.Semester, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatusTx moves a booking to a new status.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return err
}

// DeleteAllTx wipes the table.  Maintenance reset only.
func (r *BookingRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings`)
	return err
}
