package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/repository"
)

// testEnv wires the full service stack over a throwaway SQLite file.
// The settings cache runs with TTL zero so writes to system_settings
// are visible to the gate immediately.
type testEnv struct {
	db           *database.DB
	users        *repository.UserRepo
	hostels      *repository.HostelRepo
	rooms        *repository.RoomRepo
	beds         *repository.BedRepo
	accs         *repository.AccommodationRepo
	bookings     *repository.BookingRepo
	reservations *repository.ReservationRepo
	settings     *repository.SettingRepo

	gate  *PolicyGate
	alloc *AllocationService
	res   *ReservationService
	occ   *OccupancyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	env := &testEnv{
		db:           db,
		users:        repository.NewUserRepo(db),
		hostels:      repository.NewHostelRepo(db),
		rooms:        repository.NewRoomRepo(db),
		beds:         repository.NewBedRepo(db),
		accs:         repository.NewAccommodationRepo(db),
		bookings:     repository.NewBookingRepo(db),
		reservations: repository.NewReservationRepo(db),
		settings:     repository.NewSettingRepo(db),
	}
	env.gate = NewPolicyGate(NewSettingsCache(env.settings, 0))

	logger := zerolog.Nop()
	env.alloc = NewAllocationService(db, env.users, env.rooms, env.beds, env.accs, env.bookings, env.reservations, env.gate, logger)
	env.res = NewReservationService(db, env.users, env.accs, env.bookings, env.reservations, env.gate, logger)
	env.occ = NewOccupancyService(db, env.rooms, env.beds, env.accs, env.bookings, env.reservations, logger)

	env.enableBooking(t)
	return env
}

func (e *testEnv) enableBooking(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.settings.Set(ctx, model.SettingBookingEnabled, "true"))
	require.NoError(t, e.settings.Set(ctx, model.SettingReservationEnabled, "true"))
}

func (e *testEnv) setSetting(t *testing.T, name, value string) {
	t.Helper()
	require.NoError(t, e.settings.Set(context.Background(), name, value))
}

// createStudent registers a user with a unique email and returns its id.
func (e *testEnv) createStudent(t *testing.T, email string) uint64 {
	t.Helper()
	id, err := e.users.Create(context.Background(), email, "secret-password", model.RoleStudent, 4)
	require.NoError(t, err)
	return id
}

// createRoom builds a hostel, a room of the given capacity under it and
// one bed per capacity slot.  Returns the room id and the bed ids in
// label order.
func (e *testEnv) createRoom(t *testing.T, capacity int) (uint64, []uint64) {
	t.Helper()
	ctx := context.Background()

	h := &model.Hostel{Name: "Test Hall " + t.Name(), Gender: "MALE", IsActive: true}
	require.NoError(t, e.hostels.Create(ctx, h))

	room := &model.Room{HostelID: h.ID, RoomNumber: "A1", Floor: 1, Capacity: capacity, Gender: "MALE", IsActive: true}
	require.NoError(t, e.rooms.Create(ctx, room))

	bedIDs := make([]uint64, 0, capacity)
	for i := 0; i < capacity; i++ {
		b := &model.Bed{RoomID: room.ID, Label: string(rune('A' + i))}
		require.NoError(t, e.beds.Create(ctx, b))
		bedIDs = append(bedIDs, b.ID)
	}
	return room.ID, bedIDs
}

func testPeriod() model.Period {
	return model.Period{AcademicYear: "2025/2026", Semester: model.SemesterFirst}
}
