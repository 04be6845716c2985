package scan

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/testutil"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
)

func TestScanRepoCreateAndGet(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	seeded := testutil.SeedPendingScan(t, ctx, tx, userID, "2026-03-10", 180)

	got, err := repo.GetByID(dbc, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, scandom.StatusPendingUpload, got.Status)
	assert.Equal(t, 180.0, got.WeightLb)

	missing, err := repo.GetByID(dbc, "no-such-scan")
	require.NoError(t, err)
	assert.Nil(t, missing)

	blank, err := repo.GetByID(dbc, "")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestScanRepoQueryByUser(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()
	otherID := uuid.New()

	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-08", 181, 0.21)
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.205)
	testutil.SeedPendingScan(t, ctx, tx, userID, "2026-03-10", 179)
	testutil.SeedCompletedScan(t, ctx, tx, otherID, "2026-03-09", 200, 0.25)

	all, err := repo.QueryByUser(dbc, userID, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-03-08", all[0].Date)
	assert.Equal(t, "2026-03-10", all[2].Date)

	ranged, err := repo.QueryByUser(dbc, userID, "2026-03-09", "2026-03-09")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "2026-03-09", ranged[0].Date)

	none, err := repo.QueryByUser(dbc, uuid.Nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScanRepoUpdateFieldsUnlessStatus(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	rec := testutil.SeedPendingScan(t, ctx, tx, userID, "2026-03-10", 180)

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, map[string]interface{}{
		"status": scandom.StatusUploaded,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(dbc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, scandom.StatusUploaded, got.Status)

	// Push to failed, then verify the guard rejects further writes.
	ok, err = repo.UpdateFieldsUnlessStatus(dbc, rec.ID, nil, map[string]interface{}{
		"status":      scandom.StatusFailed,
		"fail_reason": "upload exhausted",
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, map[string]interface{}{
		"status": scandom.StatusUploaded,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.GetByID(dbc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, scandom.StatusFailed, got.Status)
	assert.Equal(t, "upload exhausted", got.FailReason)
}

func TestScanRepoRecentCompletedBefore(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-05", 182, 0.215)
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-08", 181, 0.21)
	first := testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.205)
	winner := testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.202)
	// On-date boundary and later dates must be excluded.
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-10", 179, 0.20)
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-11", 179, 0.199)

	// Make the re-scan unambiguously the scan of record for 03-09.
	require.NoError(t, repo.UpdateFields(dbc, winner.ID, map[string]interface{}{
		"completed_at": time.Now().UTC().Add(time.Hour),
	}))

	got, err := repo.RecentCompletedBefore(dbc, userID, "2026-03-10", 6)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first, one row per date, latest completion wins.
	assert.Equal(t, "2026-03-09", got[0].Date)
	assert.Equal(t, winner.ID, got[0].ID)
	assert.NotEqual(t, first.ID, got[0].ID)
	assert.Equal(t, "2026-03-08", got[1].Date)
	assert.Equal(t, "2026-03-05", got[2].Date)

	limited, err := repo.RecentCompletedBefore(dbc, userID, "2026-03-10", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2026-03-09", limited[0].Date)

	none, err := repo.RecentCompletedBefore(dbc, userID, "", 6)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScanRepoRecentCompletedBeforeManyAttemptsPerDay(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	// A pile of re-scans on one date must not crowd older dates out.
	for i := 0; i < 20; i++ {
		testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.205)
	}
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-05", 182, 0.215)

	got, err := repo.RecentCompletedBefore(dbc, userID, "2026-03-10", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-09", got[0].Date)
	assert.Equal(t, "2026-03-05", got[1].Date)
}

func TestScanRepoCompletedDates(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-08", 181, 0.21)
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.205)
	testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.204)
	testutil.SeedPendingScan(t, ctx, tx, userID, "2026-03-10", 179)

	dates, err := repo.CompletedDates(dbc, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08", "2026-03-09"}, dates)

	has, err := repo.HasCompletedOnDate(dbc, userID, "2026-03-09")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasCompletedOnDate(dbc, userID, "2026-03-10")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestScanRepoHardDelete(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScanRepo(gdb, testutil.Logger(t))
	userID := uuid.New()

	rec := testutil.SeedCompletedScan(t, ctx, tx, userID, "2026-03-09", 180, 0.205)
	require.NoError(t, repo.HardDelete(dbc, rec.ID))

	got, err := repo.GetByID(dbc, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
