package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/model"
)

func TestReservationCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "res-create@test.local")

	res, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{SpecialRequests: "ground floor please"})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.True(t, strings.HasPrefix(res.Reference, "RSV-"))
	assert.Equal(t, res.CreatedAt.Add(HoldWindow), res.ExpiresAt)

	got, err := env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Reference, got.Reference)
	assert.Equal(t, "ground floor please", got.SpecialRequests)
}

// Concurrent duplicate creates for one occupant and period: exactly one
// row lands, the rest get the in-flight conflict.
func TestReservationCreateConcurrentDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "res-dup@test.local")

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, ErrReservationInFlight)
	}
	assert.Equal(t, 1, created)

	list, err := env.res.ListByStudent(ctx, student)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReservationCreateBlockedByExistingState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 2)

	// An active accommodation blocks a new hold.
	allocated := env.createStudent(t, "res-allocated@test.local")
	_, err := env.alloc.Allocate(ctx, allocated, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
	_, err = env.res.Create(ctx, allocated, testPeriod(), CreateReservationInput{})
	require.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.Equal(t, "You already have an active accommodation for this semester", ErrAlreadyAllocated.Message)

	// Reservation disabled is a policy refusal.
	env.setSetting(t, model.SettingReservationEnabled, "false")
	fresh := env.createStudent(t, "res-gated@test.local")
	_, err = env.res.Create(ctx, fresh, testPeriod(), CreateReservationInput{})
	require.ErrorIs(t, err, ErrReservationDisabled)
}

func TestReservationLazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "res-expiry@test.local")

	res, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)

	// Jump past the hold window.
	env.res.now = func() time.Time { return time.Now().UTC().Add(HoldWindow + time.Hour) }

	got, err := env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationExpired, got.Status)

	// The correction was persisted, so a plain repository read agrees.
	raw, err := env.reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationExpired, raw.Status)

	// Transitions on an overdue hold report expiry, not a bad state.
	res2, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
	env.res.now = func() time.Time { return time.Now().UTC().Add(2 * (HoldWindow + time.Hour)) }
	err = env.res.Approve(ctx, res2.ID)
	require.ErrorIs(t, err, ErrReservationExpired)
}

func TestReservationExpiredHoldDoesNotBlockNewOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "res-renew@test.local")

	_, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)

	env.res.now = func() time.Time { return time.Now().UTC().Add(HoldWindow + time.Hour) }
	res2, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res2.Status)

	list, err := env.res.ListByStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestReservationTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createStudent(t, "res-flow@test.local")

	res, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)

	// Confirm straight from PENDING is refused.
	err = env.res.Confirm(ctx, res.ID)
	assert.Equal(t, KindConflict, KindOf(err))

	require.NoError(t, env.res.Approve(ctx, res.ID))
	got, err := env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationApproved, got.Status)

	// Approving twice is refused.
	err = env.res.Approve(ctx, res.ID)
	assert.Equal(t, KindConflict, KindOf(err))

	require.NoError(t, env.res.Confirm(ctx, res.ID))
	got, err = env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, got.Status)

	// Terminal states accept nothing further.
	err = env.res.Reject(ctx, res.ID)
	assert.Equal(t, KindConflict, KindOf(err))

	// A terminal hold frees the slot for a new one.
	res2, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
	require.NoError(t, env.res.Reject(ctx, res2.ID))
	_, err = env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
}

// Checkout moves the booking audit row to its terminal state, so the
// occupant may immediately open a fresh hold for the same period.
func TestReservationAfterCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 1)
	student := env.createStudent(t, "res-rebound@test.local")

	accID, err := env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)
	require.NoError(t, env.alloc.Deallocate(ctx, accID))

	res, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
}

func TestReservationCancelOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createStudent(t, "res-owner@test.local")
	stranger := env.createStudent(t, "res-stranger@test.local")

	res, err := env.res.Create(ctx, owner, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)

	err = env.res.Cancel(ctx, res.ID, stranger)
	require.ErrorIs(t, err, ErrNotYours)
	assert.Equal(t, KindPolicy, KindOf(err))

	require.NoError(t, env.res.Cancel(ctx, res.ID, owner))
	got, err := env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, got.Status)
}

func TestReservationConfirmedByAllocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID, bedIDs := env.createRoom(t, 1)
	student := env.createStudent(t, "res-to-bed@test.local")

	res, err := env.res.Create(ctx, student, testPeriod(), CreateReservationInput{})
	require.NoError(t, err)
	require.NoError(t, env.res.Approve(ctx, res.ID))

	_, err = env.alloc.Allocate(ctx, student, roomID, bedIDs[0], testPeriod())
	require.NoError(t, err)

	got, err := env.res.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, got.Status)
}

func TestReservationNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.res.Get(context.Background(), 9999)
	require.ErrorIs(t, err, ErrReservationNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReservationReferencesUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		s := env.createStudent(t, fmt.Sprintf("res-ref-%d@test.local", i))
		res, err := env.res.Create(ctx, s, testPeriod(), CreateReservationInput{})
		require.NoError(t, err)
		assert.False(t, seen[res.Reference], "duplicate reference %s", res.Reference)
		seen[res.Reference] = true
	}
}
