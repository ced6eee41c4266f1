// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer
// that turns them into an audit trail.
package queue

// Queue names.  One queue per event type, all durable.
const (
	QueueAccommodationAllocated = "accommodation.allocated"
	QueueAccommodationReleased  = "accommodation.released"
	QueueReservationCreated     = "reservation.created"
)

// AccommodationAllocatedEvent is published after an allocation commits.
// It carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type AccommodationAllocatedEvent struct {
	EventID         string `json:"event_id"`
	AccommodationID uint64 `json:"accommodation_id"`
	StudentID       uint64 `json:"student_id"`
	RoomID          uint64 `json:"room_id"`
	BedID           uint64 `json:"bed_id"`
	AcademicYear    string `json:"academic_year"`
	Semester        string `json:"semester"`
	AllocatedAt     string `json:"allocated_at"`
}

// AccommodationReleasedEvent is published after a deallocation commits.
type AccommodationReleasedEvent struct {
	EventID         string `json:"event_id"`
	AccommodationID uint64 `json:"accommodation_id"`
	StudentID       uint64 `json:"student_id"`
	RoomID          uint64 `json:"room_id"`
	ReleasedAt      string `json:"released_at"`
}

// ReservationCreatedEvent is published when a new hold is opened.
type ReservationCreatedEvent struct {
	EventID       string `json:"event_id"`
	ReservationID uint64 `json:"reservation_id"`
	StudentID     uint64 `json:"student_id"`
	Reference     string `json:"reference"`
	AcademicYear  string `json:"academic_year"`
	Semester      string `json:"semester"`
	ExpiresAt     string `json:"expires_at"`
	CreatedAt     string `json:"created_at"`
}
