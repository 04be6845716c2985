package scan

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

func TestStreakRepoUpsert(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewStreakRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	missing, err := repo.GetByUser(dbc, userID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Upsert(dbc, &types.ScanStreak{
		UserID:        userID,
		CurrentStreak: 2,
		BestStreak:    5,
		EvaluatedDate: "2026-03-09",
	}))

	got, err := repo.GetByUser(dbc, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, 5, got.BestStreak)
	assert.Equal(t, "2026-03-09", got.EvaluatedDate)

	// Second upsert for the same user overwrites in place.
	require.NoError(t, repo.Upsert(dbc, &types.ScanStreak{
		UserID:        userID,
		CurrentStreak: 3,
		BestStreak:    5,
		EvaluatedDate: "2026-03-10",
	}))

	got, err = repo.GetByUser(dbc, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, "2026-03-10", got.EvaluatedDate)
}
