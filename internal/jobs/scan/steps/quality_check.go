package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/httpx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

const qcMaxAttempts = 3

type QualityCheckDeps struct {
	Log       *logger.Logger
	Scans     repos.ScanRepo
	Estimator services.BodyCompositionEstimator
}

type QualityCheckInput struct {
	ScanID string
}

type QualityCheckOutput struct {
	QC *scandom.QCResult
}

// QualityCheck runs the advisory photo review. The verdict never blocks
// estimation; it is persisted and surfaced as confidence context. Transient
// call failures retry with backoff; after the last attempt the error is
// surfaced so the pipeline records the failure on the scan.
func QualityCheck(ctx context.Context, deps QualityCheckDeps, in QualityCheckInput) (*QualityCheckOutput, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := deps.Scans.GetByID(dbc, in.ScanID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.Consistencyf("scan %s not found", in.ScanID)
	}
	if rec.Status != scandom.StatusUploaded {
		var existing scandom.QCResult
		if len(rec.QC) > 0 && json.Unmarshal(rec.QC, &existing) == nil {
			return &QualityCheckOutput{QC: &existing}, nil
		}
		return &QualityCheckOutput{}, nil
	}

	var qc *scandom.QCResult
	var lastErr error
	for attempt := 1; attempt <= qcMaxAttempts; attempt++ {
		qc, lastErr = deps.Estimator.QualityCheck(ctx, rec.AngleURLMap())
		if lastErr == nil {
			break
		}
		deps.Log.Warn("Quality check attempt failed", "scan_id", rec.ID, "attempt", attempt, "error", lastErr)
		if attempt == qcMaxAttempts {
			return nil, apperr.Transient(fmt.Sprintf("quality check failed after %d attempts", qcMaxAttempts), lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(httpx.Backoff(time.Second, 30*time.Second, attempt)):
		}
	}

	updates := map[string]interface{}{
		"status": scandom.StatusQCDone,
	}
	if qc != nil {
		raw, merr := json.Marshal(qc)
		if merr != nil {
			return nil, merr
		}
		updates["qc"] = raw
	}

	ok, err := deps.Scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Consistencyf("scan %s reached a terminal status during quality check", rec.ID)
	}
	return &QualityCheckOutput{QC: qc}, nil
}
