package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// BedRepo encapsulates database operations for beds.  The availability
// flag is the contended piece of state in the whole system: the
// allocation transaction takes the row lock returned by GetForUpdateTx
// before reading it, so concurrent allocations of the same bed
// serialize at the storage layer.
type BedRepo struct {
	db *database.DB
}

// NewBedRepo constructs a BedRepo given a DB handle.
func NewBedRepo(db *database.DB) *BedRepo { return &BedRepo{db: db} }

const bedColumns = `id, room_id, label, is_available, created_at, updated_at`

func scanBed(row *sql.Row) (*model.Bed, error) {
	var b model.Bed
	err := row.Scan(&b.ID, &b.RoomID, &b.Label, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a bed and populates the generated ID.  Beds start
// available.
func (r *BedRepo) Create(ctx context.Context, b *model.Bed) error {
	now := time.Now().UTC()
	b.IsAvailable = true
	b.CreatedAt = now
	b.UpdatedAt = now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO beds (room_id, label, is_available, created_at, updated_at) VALUES (?, ?, 1, ?, ?)`,
		b.RoomID, b.Label, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a bed outside any transaction.
func (r *BedRepo) GetByID(ctx context.Context, id uint64) (*model.Bed, error) {
	return scanBed(r.db.QueryRowContext(ctx, `SELECT `+bedColumns+` FROM beds WHERE id = ?`, id))
}

// GetForUpdateTx fetches a bed under the dialect's row lock.  The lock
// is held until the caller commits or rolls back, which is the
// serialization point for the exclusivity guarantee.
func (r *BedRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Bed, error) {
	return scanBed(tx.QueryRowContext(ctx,
		`SELECT `+bedColumns+` FROM beds WHERE id = ?`+r.db.ForUpdate(), id))
}

// SetAvailabilityTx flips the availability flag inside a transaction.
func (r *BedRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, id uint64, available bool, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE beds SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, now, id)
	return err
}

// ListByRoom returns all beds under a room ordered by label.
func (r *BedRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Bed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bedColumns+` FROM beds WHERE room_id = ? ORDER BY label`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	beds := make([]model.Bed, 0)
	for rows.Next() {
		var b model.Bed
		if err := rows.Scan(&b.ID, &b.RoomID, &b.Label, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return beds, nil
}

// ReleaseAllTx marks every bed available.  Maintenance reset only.
func (r *BedRepo) ReleaseAllTx(ctx context.Context, tx *sql.Tx, now time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE beds SET is_available = 1, updated_at = ?`, now)
	return err
}
