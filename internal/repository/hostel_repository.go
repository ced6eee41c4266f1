package repository

import (
	"context"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// HostelRepo provides access to the hostels table.  The allocation core
// only needs hostels as a grouping reference, so the surface is small.
type HostelRepo struct {
	db *database.DB
}

// NewHostelRepo returns a HostelRepo bound to the given database.
func NewHostelRepo(db *database.DB) *HostelRepo { return &HostelRepo{db: db} }

// Create inserts a hostel and populates the generated ID.
func (r *HostelRepo) Create(ctx context.Context, h *model.Hostel) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hostels (name, gender, is_active, created_at) VALUES (?, ?, ?, ?)`,
		h.Name, h.Gender, h.IsActive, h.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID fetches a hostel; sql.ErrNoRows when absent.
func (r *HostelRepo) GetByID(ctx context.Context, id uint64) (*model.Hostel, error) {
	var h model.Hostel
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, gender, is_active, created_at FROM hostels WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.Gender, &h.IsActive, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
