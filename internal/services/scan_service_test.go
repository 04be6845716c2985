package services

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return log
}

func allPhotos() map[string]io.Reader {
	m := map[string]io.Reader{}
	for _, a := range scan.Angles {
		m[a] = strings.NewReader(a + "-bytes")
	}
	return m
}

// Validation runs before any record or blob is created. The service here has
// nil repos and stores, so a test that reaches them panics.
func TestSubmitScanValidation(t *testing.T) {
	svc := &scanService{log: testLogger(t)}
	dbc := dbctx.Context{}

	valid := SubmitScanInput{
		UserID:   uuid.New(),
		Date:     "2026-03-10",
		WeightLb: 180,
		Photos:   allPhotos(),
	}

	t.Run("missing user", func(t *testing.T) {
		in := valid
		in.UserID = uuid.Nil
		_, _, err := svc.SubmitScan(dbc, in)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("non-positive weight", func(t *testing.T) {
		in := valid
		in.WeightLb = 0
		_, _, err := svc.SubmitScan(dbc, in)
		require.True(t, apperr.IsValidation(err))
		assert.Contains(t, err.Error(), "weight_lb")

		in.WeightLb = -5
		_, _, err = svc.SubmitScan(dbc, in)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("bad date", func(t *testing.T) {
		in := valid
		in.Date = "03/10/2026"
		_, _, err := svc.SubmitScan(dbc, in)
		require.True(t, apperr.IsValidation(err))
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})

	t.Run("missing angle", func(t *testing.T) {
		in := valid
		in.Photos = allPhotos()
		delete(in.Photos, scan.AngleLeft)
		_, _, err := svc.SubmitScan(dbc, in)
		require.True(t, apperr.IsValidation(err))
		assert.Contains(t, err.Error(), "left")
	})

	t.Run("extra photo", func(t *testing.T) {
		in := valid
		in.Photos = allPhotos()
		in.Photos["selfie"] = strings.NewReader("extra")
		_, _, err := svc.SubmitScan(dbc, in)
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestListScansRequiresUser(t *testing.T) {
	svc := &scanService{log: testLogger(t)}
	_, err := svc.ListScans(dbctx.Context{}, uuid.Nil, "", "")
	assert.True(t, apperr.IsValidation(err))
}

func TestHasScannedTodayRejectsBadDate(t *testing.T) {
	svc := &scanService{log: testLogger(t)}
	_, err := svc.HasScannedToday(dbctx.Context{}, uuid.New(), "yesterday")
	assert.True(t, apperr.IsValidation(err))
}

func TestGetStreakRejectsBadDate(t *testing.T) {
	svc := &scanService{log: testLogger(t)}
	_, err := svc.GetStreak(dbctx.Context{}, uuid.New(), "2026-3-1")
	assert.True(t, apperr.IsValidation(err))
}
