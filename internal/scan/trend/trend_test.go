package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
)

func fptr(v float64) *float64 { return &v }

func completedRow(date string, bf, lbm float64, completedAt time.Time) *types.Scan {
	return &types.Scan{
		Date:        date,
		Status:      scan.StatusCompleted,
		BFPercent:   fptr(bf),
		LBMLb:       fptr(lbm),
		CompletedAt: &completedAt,
	}
}

func TestBuildFixedLengthWithGaps(t *testing.T) {
	end, err := time.Parse(scan.DateLayout, "2026-03-05")
	require.NoError(t, err)
	now := time.Now()

	rows := []*types.Scan{
		completedRow("2026-03-01", 0.21, 142, now),
		completedRow("2026-03-03", 0.20, 143, now),
		completedRow("2026-03-05", 0.195, 144, now),
	}

	s := Build(rows, 5, end)

	require.Len(t, s.Dates, 5)
	require.Len(t, s.BFPercents, 5)
	require.Len(t, s.LBMs, 5)

	assert.Equal(t, []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"}, s.Dates)

	// Gaps stay nil; they are never interpolated.
	assert.Nil(t, s.BFPercents[1])
	assert.Nil(t, s.BFPercents[3])
	assert.Nil(t, s.LBMs[1])

	require.NotNil(t, s.BFPercents[0])
	assert.InDelta(t, 0.21, *s.BFPercents[0], 1e-9)
	require.NotNil(t, s.BFPercents[4])
	assert.InDelta(t, 0.195, *s.BFPercents[4], 1e-9)
	require.NotNil(t, s.LBMs[4])
	assert.InDelta(t, 144, *s.LBMs[4], 1e-9)
}

func TestBuildEmptyRows(t *testing.T) {
	end, _ := time.Parse(scan.DateLayout, "2026-03-05")
	s := Build(nil, 3, end)
	require.Len(t, s.Dates, 3)
	for i := range s.Dates {
		assert.Nil(t, s.BFPercents[i])
		assert.Nil(t, s.LBMs[i])
	}
}

func TestBuildLatestCompletionWinsPerDate(t *testing.T) {
	end, _ := time.Parse(scan.DateLayout, "2026-03-05")
	earlier := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)

	rows := []*types.Scan{
		completedRow("2026-03-05", 0.22, 140, earlier),
		completedRow("2026-03-05", 0.19, 145, later),
	}

	s := Build(rows, 1, end)
	require.NotNil(t, s.BFPercents[0])
	assert.InDelta(t, 0.19, *s.BFPercents[0], 1e-9)
	require.NotNil(t, s.LBMs[0])
	assert.InDelta(t, 145, *s.LBMs[0], 1e-9)
}

func TestBuildSkipsNonCompletedRows(t *testing.T) {
	end, _ := time.Parse(scan.DateLayout, "2026-03-05")
	rows := []*types.Scan{
		{Date: "2026-03-05", Status: scan.StatusEstimated, BFPercent: fptr(0.2), LBMLb: fptr(144)},
		nil,
	}
	s := Build(rows, 1, end)
	assert.Nil(t, s.BFPercents[0])
	assert.Nil(t, s.LBMs[0])
}

func TestBuildMostRecentLast(t *testing.T) {
	end, _ := time.Parse(scan.DateLayout, "2026-03-10")
	s := Build(nil, 14, end)
	require.Len(t, s.Dates, 14)
	assert.Equal(t, "2026-02-25", s.Dates[0])
	assert.Equal(t, "2026-03-10", s.Dates[13])
}
