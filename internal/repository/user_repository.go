package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/utils"
)

// UserRepo provides access to the users table.  Besides authentication
// it has one structural job: LockTx takes the occupant's row lock,
// which is the serialization point for all per-occupant uniqueness
// checks (reservations, bookings, already-allocated).
type UserRepo struct {
	db *database.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

// Create inserts a user with a bcrypt-hashed password and returns the
// generated ID.  ErrDuplicate is returned on an email collision.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
		email, hash, role, now, now)
	if err != nil {
		// MySQL reports 1062, SQLite "UNIQUE constraint failed".
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LockTx takes the row lock on the occupant's user row for the duration
// of the transaction.  Every write path that enforces a per-occupant
// invariant locks here first, so two requests for the same occupant
// serialize regardless of which beds or periods they touch.  Returns
// sql.ErrNoRows for an unknown occupant.
func (r *UserRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	return tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = ?`+r.db.ForUpdate(), id).Scan(&got)
}
