package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/metrics"
	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/repository"
)

// OccupancyService owns the derived occupancy counter: reconciling it
// against bed ground truth and the maintenance reset that clears all
// allocation state between sessions.
type OccupancyService struct {
	db           *database.DB
	rooms        *repository.RoomRepo
	beds         *repository.BedRepo
	accs         *repository.AccommodationRepo
	bookings     *repository.BookingRepo
	reservations *repository.ReservationRepo
	logger       zerolog.Logger
}

// NewOccupancyService constructs an OccupancyService.
func NewOccupancyService(
	db *database.DB,
	rooms *repository.RoomRepo,
	beds *repository.BedRepo,
	accs *repository.AccommodationRepo,
	bookings *repository.BookingRepo,
	reservations *repository.ReservationRepo,
	logger zerolog.Logger,
) *OccupancyService {
	if db == nil || rooms == nil || beds == nil || accs == nil || bookings == nil || reservations == nil {
		panic("nil dependency passed to NewOccupancyService")
	}
	return &OccupancyService{
		db:           db,
		rooms:        rooms,
		beds:         beds,
		accs:         accs,
		bookings:     bookings,
		reservations: reservations,
		logger:       logger,
	}
}

// ReconcileResult reports what Reconcile found and did.
type ReconcileResult struct {
	RoomID    uint64 `json:"room_id"`
	Stored    int    `json:"stored_occupancy"`
	Actual    int    `json:"actual_occupancy"`
	Corrected bool   `json:"corrected"`
}

// Reconcile recomputes a room's occupancy from its bed rows and, under
// the room row lock, rewrites the counter when it has drifted.  Safe to
// run concurrently with allocations; the lock serializes it behind any
// in-flight allocation touching the room.
func (s *OccupancyService) Reconcile(ctx context.Context, roomID uint64) (ReconcileResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReconcileResult{}, Transient(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReconcileResult{}, ErrUnknownRoom
		}
		return ReconcileResult{}, Transient(err)
	}
	actual, err := s.rooms.CountUnavailableBedsTx(ctx, tx, roomID)
	if err != nil {
		return ReconcileResult{}, Transient(err)
	}

	result := ReconcileResult{RoomID: roomID, Stored: room.CurrentOccupancy, Actual: actual}
	if actual != room.CurrentOccupancy {
		if err := s.rooms.SetOccupancyTx(ctx, tx, roomID, actual, time.Now().UTC()); err != nil {
			return ReconcileResult{}, Transient(err)
		}
		result.Corrected = true
	}
	if err := tx.Commit(); err != nil {
		return ReconcileResult{}, Transient(err)
	}
	committed = true

	if result.Corrected {
		metrics.IncDriftCorrection()
		s.logger.Warn().
			Uint64("room_id", roomID).
			Int("stored", result.Stored).
			Int("actual", result.Actual).
			Msg("occupancy counter drift corrected")
	}
	return result, nil
}

// Occupants returns the active accommodations in a room, the staff view
// for resolving who actually holds which bed when the counter drifts.
func (s *OccupancyService) Occupants(ctx context.Context, roomID uint64) ([]model.Accommodation, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownRoom
		}
		return nil, Transient(err)
	}
	list, err := s.accs.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return nil, Transient(err)
	}
	return list, nil
}

// ResetAllocations wipes every accommodation, booking and reservation,
// frees all beds and zeroes all occupancy counters in one transaction.
// Maintenance operation for session rollover; nothing in the allocation
// path calls it.
func (s *OccupancyService) ResetAllocations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Transient(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if err := s.accs.DeleteAllTx(ctx, tx); err != nil {
		return Transient(err)
	}
	if err := s.bookings.DeleteAllTx(ctx, tx); err != nil {
		return Transient(err)
	}
	if err := s.reservations.DeleteAllTx(ctx, tx); err != nil {
		return Transient(err)
	}
	if err := s.beds.ReleaseAllTx(ctx, tx, now); err != nil {
		return Transient(err)
	}
	if err := s.rooms.ResetOccupancyAllTx(ctx, tx, now); err != nil {
		return Transient(err)
	}
	if err := tx.Commit(); err != nil {
		return Transient(err)
	}
	committed = true

	s.logger.Info().Msg("all allocations reset")
	return nil
}
