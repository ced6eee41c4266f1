package repository

import (
	"context"
	"time"

	"github.com/seyi-ade/hostel-allocation/internal/database"
)

// SettingRepo reads and writes the system_settings key/value table.
// The allocation core only reads; Set exists for the administrative
// path and for seeding tests.
type SettingRepo struct {
	db *database.DB
}

// NewSettingRepo returns a SettingRepo bound to the given database.
func NewSettingRepo(db *database.DB) *SettingRepo { return &SettingRepo{db: db} }

// GetAll returns every setting as a name->value map.
func (r *SettingRepo) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM system_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single setting value; sql.ErrNoRows when absent.
func (r *SettingRepo) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM system_settings WHERE name = ?`, name).Scan(&value)
	return value, err
}

// Set upserts a setting.  Update-then-insert keeps the statement
// portable across MySQL and SQLite, whose native upsert syntax differs.
func (r *SettingRepo) Set(ctx context.Context, name, value string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE system_settings SET value = ?, updated_at = ? WHERE name = ?`, value, now, name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO system_settings (name, value, updated_at) VALUES (?, ?, ?)`, name, value, now)
	return err
}
