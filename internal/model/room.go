package model

import "time"

// Hostel is the building a room belongs to.  Kept minimal: the
// allocation core only needs it as a grouping reference.
type Hostel struct {
	ID        uint64    // hostels.id
	Name      string    // hostels.name
	Gender    string    // hostels.gender (MALE, FEMALE, MIXED)
	IsActive  bool      // hostels.is_active
	CreatedAt time.Time // hostels.created_at
}

// Room describes a bookable room inside a hostel.  CurrentOccupancy is
// a derived counter and is mutated only inside allocation transactions;
// it must always equal the number of unavailable beds under the room.
//
// Fields:
//  ID               – primary key identifier.
//  HostelID         – hostel to which this room belongs.
//  RoomNumber       – human-readable room number, unique per hostel.
//  Floor            – floor the room is on.
//  Capacity         – number of sleeping slots; always >= 1.
//  CurrentOccupancy – derived count of occupied beds, 0..Capacity.
//  Gender           – gender designation inherited from admissions.
//  IsActive         – whether the room may receive new allocations.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Room struct {
	ID               uint64    // rooms.id
	HostelID         uint64    // rooms.hostel_id
	RoomNumber       string    // rooms.room_number
	Floor            int       // rooms.floor
	Capacity         int       // rooms.capacity
	CurrentOccupancy int       // rooms.current_occupancy
	Gender           string    // rooms.gender
	IsActive         bool      // rooms.is_active
	CreatedAt        time.Time // rooms.created_at
	UpdatedAt        time.Time // rooms.updated_at
}
