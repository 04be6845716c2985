package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/testutil"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	jobdom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/jobs"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
)

func seedJob(t *testing.T, dbc dbctx.Context, repo JobRunRepo, ownerID uuid.UUID, entityID string) *types.JobRun {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"scan_id": entityID})
	require.NoError(t, err)
	job := &types.JobRun{
		OwnerUserID: ownerID,
		JobType:     "scan_process",
		EntityType:  "scan",
		EntityID:    entityID,
		Status:      jobdom.JobStatusQueued,
		Payload:     payload,
	}
	require.NoError(t, repo.Create(dbc, job))
	require.NotEqual(t, uuid.Nil, job.ID)
	return job
}

func TestJobRunRepoCreateAndGet(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(gdb, testutil.Logger(t))
	ownerID := uuid.New()

	job := seedJob(t, dbc, repo, ownerID, "scan-1")

	got, err := repo.GetByID(dbc, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, jobdom.JobStatusQueued, got.Status)
	assert.Equal(t, "scan_process", got.JobType)
	assert.JSONEq(t, `{"scan_id":"scan-1"}`, string(got.Payload))

	missing, err := repo.GetByID(dbc, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	blank, err := repo.GetByID(dbc, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestJobRunRepoGetLatestByEntity(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(gdb, testutil.Logger(t))
	ownerID := uuid.New()

	first := seedJob(t, dbc, repo, ownerID, "scan-1")
	second := seedJob(t, dbc, repo, ownerID, "scan-1")
	// Force a strict ordering; created_at defaults can collide in one tx.
	require.NoError(t, repo.UpdateFields(dbc, second.ID, map[string]interface{}{
		"created_at": first.CreatedAt.Add(time.Second),
	}))

	got, err := repo.GetLatestByEntity(dbc, ownerID, "scan", "scan-1", "scan_process")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)

	none, err := repo.GetLatestByEntity(dbc, ownerID, "scan", "scan-2", "scan_process")
	require.NoError(t, err)
	assert.Nil(t, none)

	none, err = repo.GetLatestByEntity(dbc, uuid.New(), "scan", "scan-1", "scan_process")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestJobRunRepoGuardedUpdates(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(gdb, testutil.Logger(t))
	ownerID := uuid.New()

	job := seedJob(t, dbc, repo, ownerID, "scan-1")

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{jobdom.JobStatusCanceled}, map[string]interface{}{
		"status": jobdom.JobStatusRunning,
		"stage":  "upload_photos",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.UpdateFields(dbc, job.ID, map[string]interface{}{
		"status": jobdom.JobStatusCanceled,
	}))

	// A canceled job never transitions again.
	ok, err = repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{jobdom.JobStatusCanceled}, map[string]interface{}{
		"status": jobdom.JobStatusSucceeded,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(dbc, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobdom.JobStatusCanceled, got.Status)
}

func TestJobRunRepoHeartbeatOnlyWhileRunning(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(gdb, testutil.Logger(t))
	ownerID := uuid.New()

	job := seedJob(t, dbc, repo, ownerID, "scan-1")

	// Queued: heartbeat is a no-op.
	require.NoError(t, repo.Heartbeat(dbc, job.ID))
	got, err := repo.GetByID(dbc, job.ID)
	require.NoError(t, err)
	assert.Nil(t, got.HeartbeatAt)

	require.NoError(t, repo.UpdateFields(dbc, job.ID, map[string]interface{}{
		"status": jobdom.JobStatusRunning,
	}))
	require.NoError(t, repo.Heartbeat(dbc, job.ID))

	got, err = repo.GetByID(dbc, job.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.HeartbeatAt)
}
