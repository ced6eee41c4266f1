package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// RoomRepo encapsulates database operations for rooms.  The occupancy
// counter on a room is derived state: every mutation of it happens
// through the ...Tx methods below, inside the same transaction that
// changes the bed rows it is derived from.
type RoomRepo struct {
	db *database.DB
}

// NewRoomRepo constructs a RoomRepo given a DB handle.
func NewRoomRepo(db *database.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, hostel_id, room_number, floor, capacity, current_occupancy, gender, is_active, created_at, updated_at`

func scanRoom(row *sql.Row) (*model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.HostelID, &rm.RoomNumber, &rm.Floor, &rm.Capacity,
		&rm.CurrentOccupancy, &rm.Gender, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// Create inserts a room and populates the generated ID.  New rooms
// start with zero occupancy regardless of what the caller set.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	now := time.Now().UTC()
	rm.CurrentOccupancy = 0
	rm.CreatedAt = now
	rm.UpdatedAt = now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (hostel_id, room_number, floor, capacity, current_occupancy, gender, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		rm.HostelID, rm.RoomNumber, rm.Floor, rm.Capacity, rm.Gender, rm.IsActive, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// GetByID fetches a room outside any transaction.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
}

// GetForUpdateTx fetches a room with the dialect's row lock so the
// occupancy check-and-increment is serialized against concurrent
// allocations into the same room.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return scanRoom(tx.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`+r.db.ForUpdate(), id))
}

// IncrementOccupancyTx bumps current_occupancy by one.  Callers must
// have verified occupancy < capacity under the same row lock.
func (r *RoomRepo) IncrementOccupancyTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rooms SET current_occupancy = current_occupancy + 1, updated_at = ? WHERE id = ?`,
		now, id)
	return err
}

// DecrementOccupancyTx lowers current_occupancy by one, clamped at
// zero.  Decrementing below zero would mean the counter had already
// drifted; clamping keeps the defect from compounding.
func (r *RoomRepo) DecrementOccupancyTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rooms
		 SET current_occupancy = CASE WHEN current_occupancy > 0 THEN current_occupancy - 1 ELSE 0 END,
		     updated_at = ?
		 WHERE id = ?`,
		now, id)
	return err
}

// SetOccupancyTx writes an absolute occupancy value.  Used only by the
// reconcile operation after recomputing from bed state.
func (r *RoomRepo) SetOccupancyTx(ctx context.Context, tx *sql.Tx, id uint64, occupancy int, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rooms SET current_occupancy = ?, updated_at = ? WHERE id = ?`,
		occupancy, now, id)
	return err
}

// CountUnavailableBedsTx counts the occupied beds under a room.  This
// is the ground truth the occupancy counter is reconciled against.
func (r *RoomRepo) CountUnavailableBedsTx(ctx context.Context, tx *sql.Tx, roomID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM beds WHERE room_id = ? AND is_available = 0`, roomID).Scan(&n)
	return n, err
}

// ResetOccupancyAllTx zeroes every room's occupancy counter.  Part of
// the maintenance reset; never called from the allocation path.
func (r *RoomRepo) ResetOccupancyAllTx(ctx context.Context, tx *sql.Tx, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rooms SET current_occupancy = 0, updated_at = ?`, now)
	return err
}
