package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// ReservationRepo provides access to the reservations table.  All
// timestamps are stored in UTC.  Expiry is a logical timeout: queries
// never filter on it, the service layer interprets and opportunistically
// rewrites overdue rows.
type ReservationRepo struct {
	db *database.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *database.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, student_id, academic_year, semester, status, reference,
	preferred_hostel_id, preferred_room_type, special_requests, created_at, expires_at, updated_at`

func scanReservation(scan func(dest ...interface{}) error) (*model.Reservation, error) {
	var (
		res      model.Reservation
		hostelID sql.NullInt64
		roomType sql.NullString
		requests sql.NullString
	)
	err := scan(&res.ID, &res.StudentID, &res.AcademicYear, &res.Semester, &res.Status, &res.Reference,
		&hostelID, &roomType, &requests, &res.CreatedAt, &res.ExpiresAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if hostelID.Valid {
		id := uint64(hostelID.Int64)
		res.PreferredHostelID = &id
	}
	if roomType.Valid {
		rt := roomType.String
		res.PreferredRoomType = &rt
	}
	if requests.Valid {
		res.SpecialRequests = requests.String
	}
	return &res, nil
}

// NewReference generates a human-auditable reservation reference of the
// form RSV-XXXXXXXXXX.  crypto/rand keeps references unguessable; the
// UNIQUE constraint on the column catches the astronomically unlikely
// collision.
func NewReference() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "RSV-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// CreateTx inserts a reservation within an existing transaction and
// populates the generated ID.  Status, reference and both timestamps
// must already be set by the caller.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	var hostelID, roomType interface{}
	if res.PreferredHostelID != nil {
		hostelID = *res.PreferredHostelID
	}
	if res.PreferredRoomType != nil {
		roomType = *res.PreferredRoomType
	}
	out, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (student_id, academic_year, semester, status, reference,
		   preferred_hostel_id, preferred_room_type, special_requests, created_at, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.StudentID, res.AcademicYear, res.Semester, res.Status, res.Reference,
		hostelID, roomType, res.SpecialRequests, res.CreatedAt, res.ExpiresAt, res.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches a reservation; sql.ErrNoRows when absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id).Scan)
}

// GetForUpdateTx fetches a reservation under the dialect's row lock so
// state transitions serialize.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	return scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`+r.db.ForUpdate(), id).Scan)
}

// NonTerminalForStudentTx returns the occupant's live reservation for
// the period under the dialect's row lock, or sql.ErrNoRows.
func (r *ReservationRepo) NonTerminalForStudentTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period) (*model.Reservation, error) {
	return scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE student_id = ? AND academic_year = ? AND semester = ? AND status IN (?, ?)
		 LIMIT 1`+r.db.ForUpdate(),
		studentID, period.AcademicYear, period.Semester,
		model.ReservationPending, model.ReservationApproved).Scan)
}

// UpdateStatusTx moves a reservation to a new status.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return err
}

// ExpireOverdueForStudentTx rewrites any live reservation of the
// occupant and period whose hold window has passed.  Called inside the
// creation transaction so an expired hold never blocks a new one.
func (r *ReservationRepo) ExpireOverdueForStudentTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?
		 WHERE student_id = ? AND academic_year = ? AND semester = ?
		   AND status IN (?, ?) AND expires_at <= ?`,
		model.ReservationExpired, now,
		studentID, period.AcademicYear, period.Semester,
		model.ReservationPending, model.ReservationApproved, now)
	return err
}

// MarkExpired opportunistically stores the EXPIRED status computed at
// read time.  The guard on live statuses makes it a no-op when a
// concurrent transition already moved the row on.
func (r *ReservationRepo) MarkExpired(ctx context.Context, id uint64, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		model.ReservationExpired, now, id,
		model.ReservationPending, model.ReservationApproved)
	return err
}

// ConfirmApprovedTx promotes the occupant's APPROVED reservation for
// the period to CONFIRMED.  Called by the allocation transaction so a
// reservation that led to a bed closes out in the same commit.
func (r *ReservationRepo) ConfirmApprovedTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?
		 WHERE student_id = ? AND academic_year = ? AND semester = ? AND status = ?`,
		model.ReservationConfirmed, now,
		studentID, period.AcademicYear, period.Semester, model.ReservationApproved)
	return err
}

// ListByStudent returns all reservations of an occupant, newest first.
func (r *ReservationRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE student_id = ? ORDER BY created_at DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllTx wipes the table.  Maintenance reset only.
func (r *ReservationRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations`)
	return err
}
