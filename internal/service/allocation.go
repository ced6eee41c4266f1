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

// AllocationService grants exclusive use of one bed to one occupant for
// one period, or fails cleanly.  The whole mutation (accommodation
// insert, bed flag, occupancy counter, booking audit row) happens in a
// single storage transaction under row locks, so of N concurrent
// callers targeting the same bed exactly one commits and the rest
// observe the bed as taken.
//
// Lock order is fixed across all methods: occupant row, then bed row,
// then room row.  Nothing outside this service writes bed availability,
// room occupancy or accommodation rows.
type AllocationService struct {
	db           *database.DB
	users        *repository.UserRepo
	rooms        *repository.RoomRepo
	beds         *repository.BedRepo
	accs         *repository.AccommodationRepo
	bookings     *repository.BookingRepo
	reservations *repository.ReservationRepo
	gate         *PolicyGate
	logger       zerolog.Logger
}

// NewAllocationService constructs an AllocationService.  All
// dependencies must be non-nil.
func NewAllocationService(
	db *database.DB,
	users *repository.UserRepo,
	rooms *repository.RoomRepo,
	beds *repository.BedRepo,
	accs *repository.AccommodationRepo,
	bookings *repository.BookingRepo,
	reservations *repository.ReservationRepo,
	gate *PolicyGate,
	logger zerolog.Logger,
) *AllocationService {
	if db == nil || users == nil || rooms == nil || beds == nil || accs == nil || bookings == nil || reservations == nil || gate == nil {
		panic("nil dependency passed to NewAllocationService")
	}
	return &AllocationService{
		db:           db,
		users:        users,
		rooms:        rooms,
		beds:         beds,
		accs:         accs,
		bookings:     bookings,
		reservations: reservations,
		gate:         gate,
		logger:       logger,
	}
}

// Allocate binds the bed to the occupant for the period and returns the
// new accommodation ID.  The policy gate is consulted first; nothing is
// written when it refuses.  Inside the transaction the bed row is
// locked before its availability is re-read, which is the serialization
// point for the exclusivity guarantee.
func (s *AllocationService) Allocate(ctx context.Context, studentID, roomID, bedID uint64, period model.Period) (accID uint64, err error) {
	defer func() {
		if err != nil {
			metrics.IncAllocation(outcomeLabel(err))
		} else {
			metrics.IncAllocation("allocated")
		}
	}()

	if verr := period.Validate(); verr != nil {
		return 0, invalidPeriod(verr)
	}
	if gerr := s.gate.Allows(ctx, ActionBook, period); gerr != nil {
		return 0, gerr
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, Transient(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.users.LockTx(ctx, tx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownOccupant
		}
		return 0, Transient(err)
	}

	bed, err := s.beds.GetForUpdateTx(ctx, tx, bedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownBed
		}
		return 0, Transient(err)
	}
	if bed.RoomID != roomID {
		return 0, ErrBedNotInRoom
	}
	if !bed.IsAvailable {
		return 0, ErrBedUnavailable
	}

	room, err := s.rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownRoom
		}
		return 0, Transient(err)
	}
	if !room.IsActive {
		return 0, ErrRoomInactive
	}
	// Implied by the bed check when the counter is healthy; kept as a
	// guard against drifted data.
	if room.CurrentOccupancy >= room.Capacity {
		return 0, ErrRoomFull
	}

	exists, err := s.accs.ActiveExistsForStudentTx(ctx, tx, studentID, period)
	if err != nil {
		return 0, Transient(err)
	}
	if exists {
		return 0, ErrAlreadyAllocated
	}

	now := time.Now().UTC()
	acc := &model.Accommodation{
		StudentID:    studentID,
		RoomID:       roomID,
		BedID:        &bedID,
		AcademicYear: period.AcademicYear,
		Semester:     period.Semester,
		AllocatedAt:  now,
	}
	if err := s.accs.CreateTx(ctx, tx, acc); err != nil {
		return 0, Transient(err)
	}
	if err := s.upsertBookingTx(ctx, tx, studentID, period, model.BookingApproved, now); err != nil {
		return 0, Transient(err)
	}
	if err := s.beds.SetAvailabilityTx(ctx, tx, bedID, false, now); err != nil {
		return 0, Transient(err)
	}
	if err := s.rooms.IncrementOccupancyTx(ctx, tx, roomID, now); err != nil {
		return 0, Transient(err)
	}
	// A reservation that led here closes out in the same commit.
	if err := s.reservations.ConfirmApprovedTx(ctx, tx, studentID, period, now); err != nil {
		return 0, Transient(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, Transient(err)
	}
	committed = true

	s.logger.Info().
		Uint64("student_id", studentID).
		Uint64("room_id", roomID).
		Uint64("bed_id", bedID).
		Uint64("accommodation_id", acc.ID).
		Str("period", period.String()).
		Msg("bed allocated")
	return acc.ID, nil
}

// Deallocate releases an active accommodation: the row is deactivated,
// the bed freed and the room occupancy decremented (clamped at zero),
// all in one transaction.
func (s *AllocationService) Deallocate(ctx context.Context, accommodationID uint64) (err error) {
	defer func() {
		if err == nil {
			metrics.IncAllocation("released")
		}
	}()

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

	acc, err := s.accs.GetForUpdateTx(ctx, tx, accommodationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownAccommodation
		}
		return Transient(err)
	}
	if !acc.IsActive {
		return ErrAllocationInactive
	}

	now := time.Now().UTC()
	if err := s.accs.DeactivateTx(ctx, tx, acc.ID, now); err != nil {
		return Transient(err)
	}
	if acc.BedID != nil {
		if err := s.beds.SetAvailabilityTx(ctx, tx, *acc.BedID, true, now); err != nil {
			return Transient(err)
		}
	}
	if err := s.rooms.DecrementOccupancyTx(ctx, tx, acc.RoomID, now); err != nil {
		return Transient(err)
	}
	if err := s.closeBookingTx(ctx, tx, acc.StudentID, acc.Period(), model.BookingCheckedOut, now); err != nil {
		return Transient(err)
	}

	if err := tx.Commit(); err != nil {
		return Transient(err)
	}
	committed = true

	s.logger.Info().
		Uint64("accommodation_id", acc.ID).
		Uint64("student_id", acc.StudentID).
		Uint64("room_id", acc.RoomID).
		Msg("accommodation released")
	return nil
}

// CheckIn stamps the physical arrival on an active accommodation and
// moves the booking audit row along.
func (s *AllocationService) CheckIn(ctx context.Context, accommodationID uint64) error {
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

	acc, err := s.accs.GetForUpdateTx(ctx, tx, accommodationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownAccommodation
		}
		return Transient(err)
	}
	if !acc.IsActive {
		return ErrAllocationInactive
	}
	if acc.CheckedInAt != nil {
		return ErrAlreadyCheckedIn
	}

	now := time.Now().UTC()
	if err := s.accs.SetCheckedInTx(ctx, tx, acc.ID, now); err != nil {
		return Transient(err)
	}
	if err := s.closeBookingTx(ctx, tx, acc.StudentID, acc.Period(), model.BookingCheckedIn, now); err != nil {
		return Transient(err)
	}
	if err := tx.Commit(); err != nil {
		return Transient(err)
	}
	committed = true
	return nil
}

// GetAccommodation is a plain read used by the HTTP layer.
func (s *AllocationService) GetAccommodation(ctx context.Context, id uint64) (*model.Accommodation, error) {
	acc, err := s.accs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownAccommodation
		}
		return nil, Transient(err)
	}
	return acc, nil
}

// upsertBookingTx promotes the occupant's in-flight booking for the
// period to the given status, creating one when none exists.  Runs
// under the occupant's user-row lock.
func (s *AllocationService) upsertBookingTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period, status string, now time.Time) error {
	b, err := s.bookings.NonTerminalForStudentTx(ctx, tx, studentID, period)
	if errors.Is(err, sql.ErrNoRows) {
		return s.bookings.CreateTx(ctx, tx, &model.Booking{
			StudentID:    studentID,
			AcademicYear: period.AcademicYear,
			Semester:     period.Semester,
			Status:       status,
		})
	}
	if err != nil {
		return err
	}
	return s.bookings.UpdateStatusTx(ctx, tx, b.ID, status, now)
}

// closeBookingTx moves the occupant's in-flight booking to a terminal
// state; absence of one is not an error.
func (s *AllocationService) closeBookingTx(ctx context.Context, tx *sql.Tx, studentID uint64, period model.Period, status string, now time.Time) error {
	b, err := s.bookings.NonTerminalForStudentTx(ctx, tx, studentID, period)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.bookings.UpdateStatusTx(ctx, tx, b.ID, status, now)
}
