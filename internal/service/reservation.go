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

// HoldWindow is how long a reservation stays live before it reads as
// expired.
const HoldWindow = 7 * 24 * time.Hour

// CreateReservationInput carries the occupant's optional preferences.
// Preferences are hints for staff, never constraints on allocation.
type CreateReservationInput struct {
	PreferredHostelID *uint64
	PreferredRoomType *string
	SpecialRequests   string
}

// ReservationService runs the reservation lifecycle: a soft hold moves
// PENDING to APPROVED to CONFIRMED, or falls off the happy path into
// REJECTED, EXPIRED or CANCELLED.  Expiry is never enforced by a
// background job; every read interprets the stored status against the
// hold deadline and opportunistically persists the EXPIRED result.
//
// Uniqueness of the live hold per occupant and period is guaranteed by
// taking the occupant's user row lock before checking, the same
// serialization point the allocation transaction uses.
type ReservationService struct {
	db           *database.DB
	users        *repository.UserRepo
	accs         *repository.AccommodationRepo
	bookings     *repository.BookingRepo
	reservations *repository.ReservationRepo
	gate         *PolicyGate
	logger       zerolog.Logger

	// now is swappable in tests to drive the hold window.
	now func() time.Time
}

// NewReservationService constructs a ReservationService.
func NewReservationService(
	db *database.DB,
	users *repository.UserRepo,
	accs *repository.AccommodationRepo,
	bookings *repository.BookingRepo,
	reservations *repository.ReservationRepo,
	gate *PolicyGate,
	logger zerolog.Logger,
) *ReservationService {
	if db == nil || users == nil || accs == nil || bookings == nil || reservations == nil || gate == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		db:           db,
		users:        users,
		accs:         accs,
		bookings:     bookings,
		reservations: reservations,
		gate:         gate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new PENDING hold for the occupant and period.  Any
// overdue hold of the same occupant and period is expired inside the
// same transaction first, so a stale row never blocks a fresh one.  Of
// N concurrent creates for one occupant and period exactly one commits.
func (s *ReservationService) Create(ctx context.Context, studentID uint64, period model.Period, in CreateReservationInput) (res *model.Reservation, err error) {
	defer func() {
		if err != nil {
			metrics.IncReservation(outcomeLabel(err))
		} else {
			metrics.IncReservation("created")
		}
	}()

	if verr := period.Validate(); verr != nil {
		return nil, invalidPeriod(verr)
	}
	if gerr := s.gate.Allows(ctx, ActionReserve, period); gerr != nil {
		return nil, gerr
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Transient(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := s.now()
	if err := s.users.LockTx(ctx, tx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownOccupant
		}
		return nil, Transient(err)
	}
	if err := s.reservations.ExpireOverdueForStudentTx(ctx, tx, studentID, period, now); err != nil {
		return nil, Transient(err)
	}

	allocated, err := s.accs.ActiveExistsForStudentTx(ctx, tx, studentID, period)
	if err != nil {
		return nil, Transient(err)
	}
	if allocated {
		return nil, ErrAlreadyAllocated
	}
	if _, err := s.bookings.NonTerminalForStudentTx(ctx, tx, studentID, period); err == nil {
		return nil, ErrBookingInFlight
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, Transient(err)
	}
	if _, err := s.reservations.NonTerminalForStudentTx(ctx, tx, studentID, period); err == nil {
		return nil, ErrReservationInFlight
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, Transient(err)
	}

	ref, err := repository.NewReference()
	if err != nil {
		return nil, Transient(err)
	}
	res = &model.Reservation{
		StudentID:         studentID,
		AcademicYear:      period.AcademicYear,
		Semester:          period.Semester,
		Status:            model.ReservationPending,
		Reference:         ref,
		PreferredHostelID: in.PreferredHostelID,
		PreferredRoomType: in.PreferredRoomType,
		SpecialRequests:   in.SpecialRequests,
		CreatedAt:         now,
		ExpiresAt:         now.Add(HoldWindow),
		UpdatedAt:         now,
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, Transient(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, Transient(err)
	}
	committed = true

	s.logger.Info().
		Uint64("student_id", studentID).
		Uint64("reservation_id", res.ID).
		Str("reference", res.Reference).
		Str("period", period.String()).
		Time("expires_at", res.ExpiresAt).
		Msg("reservation created")
	return res, nil
}

// Get returns the reservation with its effective status.  A live row
// past its deadline comes back as EXPIRED and the correction is
// persisted opportunistically outside any caller transaction.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, Transient(err)
	}
	s.applyLazyExpiry(ctx, res)
	return res, nil
}

// ListByStudent returns the occupant's reservations newest first, each
// with its effective status.
func (s *ReservationService) ListByStudent(ctx context.Context, studentID uint64) ([]model.Reservation, error) {
	list, err := s.reservations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, Transient(err)
	}
	for i := range list {
		s.applyLazyExpiry(ctx, &list[i])
	}
	return list, nil
}

// Approve moves a PENDING reservation to APPROVED.  Staff operation.
func (s *ReservationService) Approve(ctx context.Context, id uint64) error {
	return s.transition(ctx, id, model.ReservationApproved, model.ReservationPending)
}

// Reject moves a PENDING reservation to REJECTED.  Staff operation.
func (s *ReservationService) Reject(ctx context.Context, id uint64) error {
	return s.transition(ctx, id, model.ReservationRejected, model.ReservationPending)
}

// Confirm moves an APPROVED reservation to CONFIRMED.  Normally the
// allocation transaction does this as part of its commit; the explicit
// operation exists for staff closing a hold out of band.
func (s *ReservationService) Confirm(ctx context.Context, id uint64) error {
	return s.transition(ctx, id, model.ReservationConfirmed, model.ReservationApproved)
}

// Cancel lets the owning occupant withdraw a live hold.  Anyone else
// gets a policy error, not a state error.
func (s *ReservationService) Cancel(ctx context.Context, id, studentID uint64) error {
	return s.transitionOwned(ctx, id, studentID, model.ReservationCancelled,
		model.ReservationPending, model.ReservationApproved)
}

func (s *ReservationService) transition(ctx context.Context, id uint64, to string, allowedFrom ...string) error {
	return s.transitionOwned(ctx, id, 0, to, allowedFrom...)
}

// transitionOwned runs a single guarded state transition under the
// reservation row lock.  ownerID zero skips the ownership check.  An
// overdue row is expired and committed before the requested transition
// is refused, so the caller sees the same state a plain read would.
func (s *ReservationService) transitionOwned(ctx context.Context, id, ownerID uint64, to string, allowedFrom ...string) error {
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

	res, err := s.reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		return Transient(err)
	}
	if ownerID != 0 && res.StudentID != ownerID {
		return ErrNotYours
	}

	now := s.now()
	if res.Overdue(now) {
		if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationExpired, now); err != nil {
			return Transient(err)
		}
		if err := tx.Commit(); err != nil {
			return Transient(err)
		}
		committed = true
		return ErrReservationExpired
	}

	ok := false
	for _, from := range allowedFrom {
		if res.Status == from {
			ok = true
			break
		}
	}
	if !ok {
		return invalidTransition(res.Status, to)
	}

	if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, to, now); err != nil {
		return Transient(err)
	}
	if err := tx.Commit(); err != nil {
		return Transient(err)
	}
	committed = true

	s.logger.Info().
		Uint64("reservation_id", res.ID).
		Str("from", res.Status).
		Str("to", to).
		Msg("reservation transition")
	return nil
}

// applyLazyExpiry rewrites an overdue in-memory reservation to EXPIRED
// and best-effort persists the correction.  Persistence failure is
// logged and swallowed; the caller still sees the truthful status.
func (s *ReservationService) applyLazyExpiry(ctx context.Context, res *model.Reservation) {
	if !res.Overdue(s.now()) {
		return
	}
	res.Status = model.ReservationExpired
	if err := s.reservations.MarkExpired(ctx, res.ID, s.now()); err != nil {
		s.logger.Warn().Err(err).Uint64("reservation_id", res.ID).Msg("could not persist lazy expiry")
	}
}
