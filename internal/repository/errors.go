// Package repository contains the data-access layer.  Each repository
// owns the SQL for one table and exposes plain methods plus ...Tx
// variants that run inside a caller-supplied transaction; the services
// own transaction boundaries.  Sentinel errors defined here let higher
// layers distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as registering an email twice.
var ErrDuplicate = errors.New("duplicate")
