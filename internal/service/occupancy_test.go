package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileNoDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)
	student := env.createStudent(t, "rec-clean@test.local")

	_, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)

	result, err := env.occ.Reconcile(ctx, roomID)
	require.NoError(t, err)
	assert.False(t, result.Corrected)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.Actual)
}

func TestReconcileCorrectsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, _ := env.createRoom(t, 4)

	// Force the counter away from bed ground truth.
	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.rooms.SetOccupancyTx(ctx, tx, roomID, 3, time.Now().UTC()))
	require.NoError(t, tx.Commit())

	result, err := env.occ.Reconcile(ctx, roomID)
	require.NoError(t, err)
	assert.True(t, result.Corrected)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, 0, result.Actual)

	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)
}

func TestOccupants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 3)

	first := env.createStudent(t, "occ-a@test.local")
	second := env.createStudent(t, "occ-b@test.local")
	_, err := env.alloc.Allocate(ctx, first, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
	accB, err := env.alloc.Allocate(ctx, second, roomID, bedIDs[1], testPeriod())
	require.NoError(t, err)

	list, err := env.occ.Occupants(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].StudentID)
	assert.Equal(t, second, list[1].StudentID)

	// A released accommodation drops out of the view.
	require.NoError(t, env.alloc.Deallocate(ctx, accB))
	list, err = env.occ.Occupants(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].StudentID)

	_, err = env.occ.Occupants(ctx, 424242)
	require.ErrorIs(t, err, ErrUnknownRoom)
}

func TestReconcileUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.occ.Reconcile(context.Background(), 424242)
	require.ErrorIs(t, err, ErrUnknownRoom)
}

func TestResetAllocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)

	for i := 0; i < 2; i++ {
		s := env.createStudent(t, fmt.Sprintf("reset-%d@test.local", i))
		_, err := env.alloc.Allocate(ctx, s, roomID, bedIDs[i], testPeriod())
		require.NoError(t, err)
	}
	holder := env.createStudent(t, "reset-res@test.local")
	_, err := env.res.Create(ctx, holder, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)

	require.NoError(t, env.occ.ResetAllocations(ctx))

	room, err := env.rooms.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)

	beds, err := env.beds.ListByRoom(ctx, roomID)
	require.NoError(t, err)
	for _, b := range beds {
		assert.True(t, b.IsAvailable)
	}

	list, err := env.res.ListByStudent(ctx, holder)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The wiped period is immediately allocatable again.
	fresh := env.createStudent(t, "reset-after@test.local")
	_, err = env.alloc.Allocate(ctx, fresh, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
}
