package steps

import (
	"context"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

type EstimateDeps struct {
	Log       *logger.Logger
	Scans     repos.ScanRepo
	Profiles  repos.UserProfileRepo
	Estimator services.BodyCompositionEstimator
}

type EstimateInput struct {
	ScanID string
}

type EstimateOutput struct {
	BFPercent float64
	LBMLb     float64
}

// Estimate runs the body-composition pass exactly once. Estimation failures
// are terminal for the scan: no automatic retries, the user re-submits with
// better photos. Lean mass is always recomputed from the logged weight, never
// taken from the model.
func Estimate(ctx context.Context, deps EstimateDeps, in EstimateInput) (*EstimateOutput, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := deps.Scans.GetByID(dbc, in.ScanID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.Consistencyf("scan %s not found", in.ScanID)
	}
	// Estimates are immutable once written; a resumed run must not re-invoke
	// the model.
	if rec.BFPercent != nil && rec.LBMLb != nil && rec.Status != scandom.StatusQCDone {
		return &EstimateOutput{BFPercent: *rec.BFPercent, LBMLb: *rec.LBMLb}, nil
	}

	ec := services.EstimateContext{}
	if profile, perr := deps.Profiles.GetByUserID(dbc, rec.UserID); perr == nil && profile != nil {
		ec.AgeYears = profile.AgeYears
		ec.Gender = profile.Gender
		ec.HeightIn = profile.HeightIn
	}

	est, err := deps.Estimator.Estimate(ctx, rec.AngleURLMap(), rec.WeightLb, ec)
	if err != nil {
		return nil, err
	}

	lbm := rec.WeightLb * (1 - est.BFPercent)
	ok, err := deps.Scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, map[string]interface{}{
		"bf_percent":     est.BFPercent,
		"lbm_lb":         lbm,
		"muscle_percent": est.MusclePercent,
		"bf_confidence":  est.Confidence,
		"status":         scandom.StatusEstimated,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Consistencyf("scan %s reached a terminal status during estimation", rec.ID)
	}
	deps.Log.Info("Body composition estimated", "scan_id", rec.ID, "bf_percent", est.BFPercent, "lbm_lb", lbm, "confidence", est.Confidence)
	return &EstimateOutput{BFPercent: est.BFPercent, LBMLb: lbm}, nil
}
