package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/model"
)

func TestAllocateSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "alloc-ok@test.local")
	roomID, bedIDs := env.createRoom(t, 4)

	accID, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
	require.NotZero(t, accID)

	bed, err := env.beds.GetByID(ctx, bedIDs[0])
	require.NoError(t, err)
	assert.False(t, bed.IsAvailable)

	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 1, room.CurrentOccupancy)

	acc, err := env.alloc.GetAccommodation(ctx, accID)
	require.NoError(t, err)
	assert.True(t, acc.IsActive)
	require.NotNil(t, acc.BedID)
	assert.Equal(t, bedIDs[0], *acc.BedID)
}

// Five concurrent allocations of the last free bed: exactly one wins,
// the rest see the bed as occupied, and the occupancy counter never
// exceeds capacity.
func TestAllocateConcurrentOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 4)

	// Fill three of the four beds so one remains.
	for i := 0; i < 3; i++ {
		s := env.createStudent(t, fmt.Sprintf("filler-%d@test.local", i))
		_, err := env.alloc.Allocate(ctx, s, roomID, bedIDs[i], testPeriod())
		require.NoError(t, err)
	}

	const contenders = 5
	students := make([]uint64, contenders)
	for i := range students {
		students[i] = env.createStudent(t, fmt.Sprintf("contender-%d@test.local", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.alloc.Allocate(ctx, students[i], roomID, bedIDs[3], testPeriod())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, ErrBedUnavailable)
		assert.Equal(t, "Bed is already occupied", ErrBedUnavailable.Message)
	}
	assert.Equal(t, 1, winners)

	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 4, room.CurrentOccupancy)
}

func TestAllocateBedAlreadyOccupied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)

	first := env.createStudent(t, "first@test.local")
	_, err := env.alloc.Allocate(ctx, first, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)

	second := env.createStudent(t, "second@test.local")
	_, err = env.alloc.Allocate(ctx, second, roomID, bedIDs[0], testPeriod())
	require.ErrorIs(t, err, ErrBedUnavailable)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestAllocateAlreadyAllocatedSamePeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)
	student := env.createStudent(t, "double@test.local")

	_, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)

	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[1], testPeriod())
	require.ErrorIs(t, err, ErrAlreadyAllocated)

	// A different semester is a different scope: the same student may
	// hold a bed there.
	other := model.Period{AcademicYear: "2025/2026", Semester: model.SemesterSecond}
	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[1], other)
	require.NoError(t, err)
}

func TestAllocateRoomFullOnDriftedCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 1)

	// Drift the counter up to capacity while the bed stays free.
	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.rooms.IncrementOccupancyTx(ctx, tx, roomID, time.Now().UTC()))
	require.NoError(t, tx.Commit())

	student := env.createStudent(t, "full@test.local")
	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, "Room is full", ErrRoomFull.Message)
}

func TestAllocateBookingDisabledLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)
	student := env.createStudent(t, "gated@test.local")

	env.setSetting(t, model.SettingBookingEnabled, "false")
	_, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.ErrorIs(t, err, ErrBookingDisabled)
	assert.Equal(t, "Booking is currently disabled", ErrBookingDisabled.Message)
	assert.Equal(t, KindPolicy, KindOf(err))

	// Nothing was written.
	bed, err := env.beds.GetByID(ctx, bedIDs[0])
	require.NoError(t, err)
	assert.True(t, bed.IsAvailable)
	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)
}

func TestAllocateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)
	otherRoomID, otherBeds := env.createRoom(t, 1)
	student := env.createStudent(t, "validate@test.local")

	_, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], model.Period{AcademicYear: "2025", Semester: model.SemesterFirst})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[0], model.Period{AcademicYear: "2025/2027", Semester: model.SemesterFirst})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.alloc.Allocate(ctx, student, roomID, otherBeds[0], testPeriod())
	require.ErrorIs(t, err, ErrBedNotInRoom)

	_, err = env.alloc.Allocate(ctx, student, otherRoomID+roomID+100, bedIDs[0], testPeriod())
	require.ErrorIs(t, err, ErrBedNotInRoom)

	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[0]+otherBeds[0]+100, testPeriod())
	require.ErrorIs(t, err, ErrUnknownBed)

	_, err = env.alloc.Allocate(ctx, student+1000, roomID, bedIDs[0], testPeriod())
	require.ErrorIs(t, err, ErrUnknownOccupant)
}

func TestDeallocateRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)
	student := env.createStudent(t, "release@test.local")

	accID, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
	require.NoError(t, env.alloc.Deallocate(ctx, accID))

	bed, err := env.beds.GetByID(ctx, bedIDs[0])
	require.NoError(t, err)
	assert.True(t, bed.IsAvailable)

	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)

	acc, err := env.alloc.GetAccommodation(ctx, accID)
	require.NoError(t, err)
	assert.False(t, acc.IsActive)
	assert.NotNil(t, acc.CheckedOutAt)

	// Releasing twice is a conflict, and the counter never goes negative.
	err = env.alloc.Deallocate(ctx, accID)
	require.ErrorIs(t, err, ErrAllocationInactive)
	room, err = env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)

	// The slot is reusable by someone else.
	other := env.createStudent(t, "release-next@test.local")
	_, err = env.alloc.Allocate(ctx, other, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
}

func TestCheckIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 1)
	student := env.createStudent(t, "checkin@test.local")

	accID, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)

	require.NoError(t, env.alloc.CheckIn(ctx, accID))
	acc, err := env.alloc.GetAccommodation(ctx, accID)
	require.NoError(t, err)
	assert.NotNil(t, acc.CheckedInAt)

	err = env.alloc.CheckIn(ctx, accID)
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	require.NoError(t, env.alloc.Deallocate(ctx, accID))
	err = env.alloc.CheckIn(ctx, accID)
	require.ErrorIs(t, err, ErrAllocationInactive)
}
