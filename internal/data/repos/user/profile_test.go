package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/testutil"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
)

func TestUserProfileRepoUpsert(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewUserProfileRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	missing, err := repo.GetByUserID(dbc, userID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Upsert(dbc, &types.UserProfile{
		UserID:   userID,
		AgeYears: 31,
		Gender:   "male",
		HeightIn: 70,
	}))

	got, err := repo.GetByUserID(dbc, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 31, got.AgeYears)
	assert.Equal(t, "male", got.Gender)
	assert.Equal(t, 70.0, got.HeightIn)

	require.NoError(t, repo.Upsert(dbc, &types.UserProfile{
		UserID:   userID,
		AgeYears: 32,
		Gender:   "male",
		HeightIn: 70.5,
	}))

	got, err = repo.GetByUserID(dbc, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 32, got.AgeYears)
	assert.Equal(t, 70.5, got.HeightIn)

	// Nil and nil-user upserts are no-ops.
	require.NoError(t, repo.Upsert(dbc, nil))
	require.NoError(t, repo.Upsert(dbc, &types.UserProfile{}))
}
