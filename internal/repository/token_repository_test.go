package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/utils"
)

func newTokenTestRepos(t *testing.T) (*UserRepo, *TokenRepo) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return NewUserRepo(db), NewTokenRepo(db)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	users, tokens := newTokenTestRepos(t)
	ctx := context.Background()

	userID, err := users.Create(ctx, "token@test.local", "secret-password", model.RoleStudent, 4)
	require.NoError(t, err)

	exp := time.Now().UTC().Add(24 * time.Hour)
	hash := utils.HashRefreshRaw("raw-token-one")
	require.NoError(t, tokens.StoreRefresh(ctx, userID, hash, exp))

	got, err := tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// Revoking kills the token but leaves the row for audit.
	require.NoError(t, tokens.RevokeByHash(ctx, hash))
	_, err = tokens.ValidateRefresh(ctx, hash)
	require.ErrorIs(t, err, sql.ErrNoRows)

	// An expired token validates as absent.
	staleHash := utils.HashRefreshRaw("raw-token-stale")
	require.NoError(t, tokens.StoreRefresh(ctx, userID, staleHash, time.Now().UTC().Add(-time.Minute)))
	_, err = tokens.ValidateRefresh(ctx, staleHash)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

// Revoking all sessions invalidates every live token of the user and
// nobody else's.
func TestRevokeAllForUser(t *testing.T) {
	users, tokens := newTokenTestRepos(t)
	ctx := context.Background()

	victim, err := users.Create(ctx, "victim@test.local", "secret-password", model.RoleStudent, 4)
	require.NoError(t, err)
	other, err := users.Create(ctx, "other@test.local", "secret-password", model.RoleStudent, 4)
	require.NoError(t, err)

	exp := time.Now().UTC().Add(24 * time.Hour)
	victimHashes := []string{utils.HashRefreshRaw("v-one"), utils.HashRefreshRaw("v-two")}
	for _, h := range victimHashes {
		require.NoError(t, tokens.StoreRefresh(ctx, victim, h, exp))
	}
	otherHash := utils.HashRefreshRaw("o-one")
	require.NoError(t, tokens.StoreRefresh(ctx, other, otherHash, exp))

	require.NoError(t, tokens.RevokeAllForUser(ctx, victim))

	for _, h := range victimHashes {
		_, err := tokens.ValidateRefresh(ctx, h)
		require.ErrorIs(t, err, sql.ErrNoRows)
	}
	got, err := tokens.ValidateRefresh(ctx, otherHash)
	require.NoError(t, err)
	assert.Equal(t, other, got)
}
