package model

import "time"

// Bed is the finest-grained allocatable unit: exactly one row per
// physical sleeping slot, exactly one active occupant at a time.
// IsAvailable is false if and only if an active accommodation
// references the bed.
//
// Fields:
//  ID          – primary key identifier.
//  RoomID      – owning room.
//  Label       – human-readable label ("A", "B", ...), unique per room.
//  IsAvailable – whether the bed can be allocated right now.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Bed struct {
	ID          uint64    // beds.id
	RoomID      uint64    // beds.room_id
	Label       string    // beds.label
	IsAvailable bool      // beds.is_available
	CreatedAt   time.Time // beds.created_at
	UpdatedAt   time.Time // beds.updated_at
}
