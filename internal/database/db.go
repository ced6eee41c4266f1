package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures the few places where MySQL and SQLite SQL diverge.
// MySQL relies on InnoDB row locks (SELECT ... FOR UPDATE); SQLite has
// no row-level locking, so RowLock is empty there and exclusivity comes
// from opening transactions with BEGIN IMMEDIATE (_txlock=immediate in
// the DSN), which serializes writers for the whole database.  Either
// way the allocation transaction observes a serialized read-check-write
// on the target bed.
type Dialect struct {
	Name       string // driver name as registered with database/sql
	PrimaryKey string // column definition for an auto-increment id
	RowLock    string // suffix appended to locking SELECTs
}

var (
	// MySQLDialect is used in production deployments.
	MySQLDialect = Dialect{
		Name:       "mysql",
		PrimaryKey: "id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY",
		RowLock:    " FOR UPDATE",
	}
	// SQLiteDialect is used for tests and single-node local runs.
	SQLiteDialect = Dialect{
		Name:       "sqlite3",
		PrimaryKey: "id INTEGER PRIMARY KEY AUTOINCREMENT",
		RowLock:    "",
	}
)

// DB bundles the connection pool with the dialect it was opened under
// so repositories can render locking reads without caring which engine
// is behind them.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ForUpdate returns the row-lock suffix for locking SELECTs.
func (d *DB) ForUpdate() string { return d.Dialect.RowLock }

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, Dialect: MySQLDialect}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
// _txlock=immediate makes every transaction take the writer lock at
// BEGIN, and _busy_timeout makes concurrent writers queue instead of
// failing, which is what gives the allocation path its one-winner
// behavior on this engine.
func OpenSQLite(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := ping(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, Dialect: SQLiteDialect}, nil
}

// ping verifies the connection with a short timeout.
func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
