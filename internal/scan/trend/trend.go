package trend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

// Series is a fixed-length time series for charting: one slot per calendar
// day, most recent last, nil where no completed scan exists. Gaps are never
// interpolated or dropped; chart consumers handle them (connectNulls).
type Series struct {
	Dates      []string   `json:"dates"`
	BFPercents []*float64 `json:"bf_percents"`
	LBMs       []*float64 `json:"lbms"`
}

// CompletedReader is the slice of the scan store the trend query needs.
type CompletedReader interface {
	ListCompletedInRange(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error)
}

type Query struct {
	log   *logger.Logger
	scans CompletedReader
}

func NewQuery(baseLog *logger.Logger, scans CompletedReader) *Query {
	return &Query{
		log:   baseLog.With("component", "TrendQuery"),
		scans: scans,
	}
}

// GetTrend returns a Series of exactly periodDays slots ending at endDate
// (YYYY-MM-DD). When several completed scans share a date, the most recently
// completed one wins.
func (q *Query) GetTrend(dbc dbctx.Context, userID uuid.UUID, periodDays int, endDate string) (Series, error) {
	if periodDays <= 0 {
		return Series{}, fmt.Errorf("trend: period_days must be positive, got %d", periodDays)
	}
	end, err := time.Parse(scan.DateLayout, endDate)
	if err != nil {
		return Series{}, fmt.Errorf("trend: bad end date %q: %w", endDate, err)
	}
	start := end.AddDate(0, 0, -(periodDays - 1))

	rows, err := q.scans.ListCompletedInRange(dbc, userID, start.Format(scan.DateLayout), endDate)
	if err != nil {
		return Series{}, fmt.Errorf("trend: query completed scans: %w", err)
	}

	return Build(rows, periodDays, end), nil
}

// Build assembles the series from completed scan rows. Pure; exported so the
// pipeline and tests can reuse it without a store.
func Build(rows []*types.Scan, periodDays int, end time.Time) Series {
	byDate := map[string]*types.Scan{}
	for _, s := range rows {
		if s == nil || s.Status != scan.StatusCompleted {
			continue
		}
		prev, ok := byDate[s.Date]
		if !ok || completedAfter(s, prev) {
			byDate[s.Date] = s
		}
	}

	out := Series{
		Dates:      make([]string, periodDays),
		BFPercents: make([]*float64, periodDays),
		LBMs:       make([]*float64, periodDays),
	}
	for i := 0; i < periodDays; i++ {
		day := end.AddDate(0, 0, i-(periodDays-1)).Format(scan.DateLayout)
		out.Dates[i] = day
		if s, ok := byDate[day]; ok {
			out.BFPercents[i] = s.BFPercent
			out.LBMs[i] = s.LBMLb
		}
	}
	return out
}

func completedAfter(a, b *types.Scan) bool {
	if a.CompletedAt == nil {
		return false
	}
	if b.CompletedAt == nil {
		return true
	}
	return a.CompletedAt.After(*b.CompletedAt)
}
