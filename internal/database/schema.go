package database

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates every table the service needs.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so the call is safe on every
// startup; bronivik-style schema-at-open keeps deployments free of a
// separate migration tool.  Timestamps are always written from Go in
// UTC, so no column defaults are declared for them.
func (d *DB) Migrate(ctx context.Context) error {
	pk := d.Dialect.PrimaryKey
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS hostels (
			%s,
			name VARCHAR(191) NOT NULL,
			gender VARCHAR(16) NOT NULL DEFAULT 'MIXED',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rooms (
			%s,
			hostel_id BIGINT NOT NULL,
			room_number VARCHAR(32) NOT NULL,
			floor INT NOT NULL DEFAULT 0,
			capacity INT NOT NULL,
			current_occupancy INT NOT NULL DEFAULT 0,
			gender VARCHAR(16) NOT NULL DEFAULT 'MIXED',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (hostel_id, room_number),
			FOREIGN KEY (hostel_id) REFERENCES hostels(id)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS beds (
			%s,
			room_id BIGINT NOT NULL,
			label VARCHAR(32) NOT NULL,
			is_available TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (room_id, label),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accommodations (
			%s,
			student_id BIGINT NOT NULL,
			room_id BIGINT NOT NULL,
			bed_id BIGINT NULL,
			academic_year VARCHAR(9) NOT NULL,
			semester VARCHAR(32) NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			allocated_at DATETIME NOT NULL,
			checked_in_at DATETIME NULL,
			checked_out_at DATETIME NULL,
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bookings (
			%s,
			student_id BIGINT NOT NULL,
			academic_year VARCHAR(9) NOT NULL,
			semester VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reservations (
			%s,
			student_id BIGINT NOT NULL,
			academic_year VARCHAR(9) NOT NULL,
			semester VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			reference VARCHAR(64) NOT NULL,
			preferred_hostel_id BIGINT NULL,
			preferred_room_type VARCHAR(32) NULL,
			special_requests TEXT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (reference)
		)`, pk),
		`CREATE TABLE IF NOT EXISTS system_settings (
			name VARCHAR(64) NOT NULL PRIMARY KEY,
			value VARCHAR(191) NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			%s,
			email VARCHAR(191) NOT NULL,
			password_hash VARCHAR(191) NOT NULL,
			role VARCHAR(16) NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (email)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS refresh_tokens (
			%s,
			user_id BIGINT NOT NULL,
			token_hash VARCHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			UNIQUE (token_hash)
		)`, pk),
	}
	for _, s := range stmts {
		if _, err := d.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	indexes := map[string]string{
		"idx_accommodations_student_period": "accommodations (student_id, academic_year, semester)",
		"idx_accommodations_bed_active":     "accommodations (bed_id, is_active)",
		"idx_bookings_student_period":       "bookings (student_id, academic_year, semester)",
		"idx_reservations_student_period":   "reservations (student_id, academic_year, semester)",
		"idx_refresh_tokens_user":           "refresh_tokens (user_id)",
	}
	for name, target := range indexes {
		if err := d.createIndex(ctx, name, target); err != nil {
			return err
		}
	}
	return nil
}

// createIndex adds a secondary index if it does not exist yet.  SQLite
// understands IF NOT EXISTS; MySQL does not, so there a duplicate-name
// error is treated as already-created.
func (d *DB) createIndex(ctx context.Context, name, target string) error {
	if d.Dialect.Name == "sqlite3" {
		_, err := d.ExecContext(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s", name, target))
		if err != nil {
			return fmt.Errorf("migrate index %s: %w", name, err)
		}
		return nil
	}
	_, err := d.ExecContext(ctx, fmt.Sprintf("CREATE INDEX %s ON %s", name, target))
	if err != nil {
		// MySQL error 1061: duplicate key name
		if strings.Contains(err.Error(), "1061") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil
		}
		return fmt.Errorf("migrate index %s: %w", name, err)
	}
	return nil
}
