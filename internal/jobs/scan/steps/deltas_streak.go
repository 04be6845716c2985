package steps

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/scan/delta"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/scan/streak"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

// Slope window: the current scan plus up to six prior completed samples.
const slopeHistory = 7

type FinalizeDeps struct {
	Log     *logger.Logger
	Scans   repos.ScanRepo
	Streaks repos.StreakRepo
	Insight services.InsightService
}

type FinalizeInput struct {
	ScanID string
}

type FinalizeOutput struct {
	Delta  scandom.Delta
	Streak streak.Result
}

// Finalize computes deltas against prior completed scans, classifies the
// trend, refreshes the streak cache, attaches the insight, and promotes the
// scan to completed. Consistency failures leave the scan estimated; the
// caller may retry.
func Finalize(ctx context.Context, deps FinalizeDeps, in FinalizeInput) (*FinalizeOutput, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := deps.Scans.GetByID(dbc, in.ScanID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.Consistencyf("scan %s not found", in.ScanID)
	}
	if rec.Status == scandom.StatusCompleted {
		out := &FinalizeOutput{}
		_ = json.Unmarshal(rec.Deltas, &out.Delta)
		return out, nil
	}
	if rec.BFPercent == nil || rec.LBMLb == nil {
		return nil, apperr.Consistencyf("scan %s has no estimate to finalize", rec.ID)
	}

	current, err := toSample(rec)
	if err != nil {
		return nil, err
	}

	prior, err := deps.Scans.RecentCompletedBefore(dbc, rec.UserID, rec.Date, slopeHistory-1)
	if err != nil {
		return nil, err
	}
	var prev, prev2 *delta.Sample
	var prevID, prev2ID *string
	if len(prior) > 0 {
		s, serr := toSample(prior[0])
		if serr != nil {
			return nil, apperr.Consistencyf("prior scan %s is malformed: %v", prior[0].ID, serr)
		}
		prev, prevID = &s, &prior[0].ID
	}
	if len(prior) > 1 {
		s, serr := toSample(prior[1])
		if serr != nil {
			return nil, apperr.Consistencyf("prior scan %s is malformed: %v", prior[1].ID, serr)
		}
		prev2, prev2ID = &s, &prior[1].ID
	}

	// prior is newest-first; history wants ascending with current last.
	history := make([]delta.Sample, 0, len(prior)+1)
	for i := len(prior) - 1; i >= 0; i-- {
		s, serr := toSample(prior[i])
		if serr != nil {
			continue
		}
		history = append(history, s)
	}
	history = append(history, current)

	d := delta.Compute(current, prev, prev2, history)

	dates, err := deps.Scans.CompletedDates(dbc, rec.UserID)
	if err != nil {
		return nil, err
	}
	st := streak.Compute(append(dates, rec.Date), rec.Date)

	var qc *types.QCResult
	if len(rec.QC) > 0 {
		var parsed types.QCResult
		if json.Unmarshal(rec.QC, &parsed) == nil {
			qc = &parsed
		}
	}
	insight := deps.Insight.Generate(ctx, rec, d, qc)

	deltasJSON, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	insightJSON, err := json.Marshal(insight)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := deps.Scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, map[string]interface{}{
		"deltas":        deltasJSON,
		"insight":       insightJSON,
		"prev_scan_id":  prevID,
		"prev2_scan_id": prev2ID,
		"status":        scandom.StatusCompleted,
		"completed_at":  now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Consistencyf("scan %s reached a terminal status during finalize", rec.ID)
	}

	if err := deps.Streaks.Upsert(dbc, &types.ScanStreak{
		UserID:        rec.UserID,
		CurrentStreak: st.Current,
		BestStreak:    st.Best,
		EvaluatedDate: rec.Date,
	}); err != nil {
		// Cache only; derivable from completed dates on next read.
		deps.Log.Warn("Streak cache update failed", "user_id", rec.UserID, "error", err)
	}

	deps.Log.Info("Scan completed", "scan_id", rec.ID, "trend", d.Trend, "current_streak", st.Current, "best_streak", st.Best)
	return &FinalizeOutput{Delta: d, Streak: st}, nil
}

func toSample(rec *types.Scan) (delta.Sample, error) {
	t, err := time.Parse(scandom.DateLayout, rec.Date)
	if err != nil {
		return delta.Sample{}, err
	}
	s := delta.Sample{Date: t, WeightLb: rec.WeightLb}
	if rec.BFPercent != nil {
		s.BFPercent = *rec.BFPercent
	}
	if rec.LBMLb != nil {
		s.LBMLb = *rec.LBMLb
	}
	return s, nil
}
