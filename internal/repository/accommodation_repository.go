package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// AccommodationRepo provides access to the accommodations table.  Rows
// are only ever created by the allocation transaction and deactivated
// on checkout; nothing hard-deletes them outside the maintenance reset.
type AccommodationRepo struct {
	db *database.DB
}

// NewAccommodationRepo returns an AccommodationRepo bound to the given database.
func NewAccommodationRepo(db *database.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

const accommodationColumns = `id, student_id, room_id, bed_id, academic_year, semester, is_active, allocated_at, checked_in_at, checked_out_at`

func scanAccommodation(row *sql.Row) (*model.Accommodation, error) {
	var (
		a          model.Accommodation
		bedID      sql.NullInt64
		checkedIn  sql.NullTime
		checkedOut sql.NullTime
	)
	err := row.Scan(&a.ID, &a.StudentID, &a.RoomID, &bedID, &a.AcademicYear, &a.Semester,
		&a.IsActive, &a.AllocatedAt, &checkedIn, &checkedOut)
	if err != nil {
		return nil, err
	}
	if bedID.Valid {
		id := uint64(bedID.Int64)
		a.BedID = &id
	}
	if checkedIn.Valid {
		t := checkedIn.Time
		a.CheckedInAt = &t
	}
	if checkedOut.Valid {
		t := checkedOut.Time
		a.CheckedOutAt = &t
	}
	return &a, nil
}

// CreateTx inserts an accommodation within an existing transaction and
// populates the generated ID.  The caller commits or rolls back.
func (r *AccommodationRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Accommodation) error {
	var bedID interface{}
	if a.BedID != nil {
		bedID = *a.BedID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO accommodations (student_id, room_id, bed_id, academic_year, semester, is_active, allocated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		a.StudentID, a.RoomID, bedID, a.AcademicYear, a.Semester, a.AllocatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.IsActive = true
	return nil
}

// GetByID fetches an accommodation; sql.ErrNoRows when absent.
func (r *AccommodationRepo) GetByID(ctx context.Context, id uint64) (*model.Accommodation, error) {
	return scanAccommodation(r.db.QueryRowContext(ctx,
		`SELECT `+accommodationColumns+` FROM accommodations WHERE id = ?`, id))
}

// GetForUpdateTx fetches an accommodation under the dialect's row lock
// so checkout and check-in cannot race each other.
func (r *AccommodationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Accommodation, error) {
	return scanAccommodation(tx.QueryRowContext(ctx,
		`SELECT `+accommodationColumns+` FROM accommodations WHERE id = ?`+r.db.ForUpdate(), id))
}

// ActiveExistsForStudentTx reports whether the occupant already holds
// an active accommodation for the period.  Runs inside the caller's
// transaction so the answer cannot change before commit.
func (r *AccommodationRepo) ActiveExistsForStudentTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accommodations
		 WHERE student_id = ? AND academic_year = ? AND semester = ? AND is_active = 1`,
		studentID, period.AcademicYear, period.Semester).Scan(&n)
	return n > 0, err
}

// DeactivateTx marks the accommodation inactive and stamps checkout.
func (r *AccommodationRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accommodations SET is_active = 0, checked_out_at = ? WHERE id = ?`, at, id)
	return err
}

// SetCheckedInTx stamps the physical check-in time.
func (r *AccommodationRepo) SetCheckedInTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accommodations SET checked_in_at = ? WHERE id = ?`, at, id)
	return err
}

// ListActiveByRoom returns the active accommodations in a room, used by
// staff views when resolving occupancy drift.
func (r *AccommodationRepo) ListActiveByRoom(ctx context.Context, roomID uint64) ([]model.Accommodation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accommodationColumns+` FROM accommodations WHERE room_id = ? AND is_active = 1 ORDER BY allocated_at`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Accommodation, 0)
	for rows.Next() {
		var (
			a          model.Accommodation
			bedID      sql.NullInt64
			checkedIn  sql.NullTime
			checkedOut sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &a.RoomID, &bedID, &a.AcademicYear, &a.Semester,
			&a.IsActive, &a.AllocatedAt, &checkedIn, &checkedOut); err != nil {
			return nil, err
		}
		if bedID.Valid {
			id := uint64(bedID.Int64)
			a.BedID = &id
		}
		if checkedIn.Valid {
			t := checkedIn.Time
			a.CheckedInAt = &t
		}
		if checkedOut.Valid {
			t := checkedOut.Time
			a.CheckedOutAt = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllTx wipes the table.  Maintenance reset only.
func (r *AccommodationRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM accommodations`)
	return err
}
