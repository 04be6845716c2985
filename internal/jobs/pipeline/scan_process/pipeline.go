package scan_process

import (
	"fmt"

	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	jobrt "github.com/DandaAkhilReddy/dailyscan-backend/internal/jobs/runtime"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/jobs/scan/steps"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	scanID := jc.PayloadString("scan_id")
	if scanID == "" {
		jc.Fail("validate", fmt.Errorf("missing scan_id"))
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}

	retriedFinalize := false
	for {
		rec, err := p.scans.GetByID(dbc, scanID)
		if err != nil {
			// Storage hiccup: surface to the workflow for a retried tick.
			return err
		}
		if rec == nil {
			jc.Fail("validate", fmt.Errorf("scan %s not found", scanID))
			return nil
		}

		switch rec.Status {
		case scandom.StatusPendingUpload:
			jc.Progress("upload_photos", 10, "Uploading photos")
			_, err := steps.UploadPhotos(jc.Ctx, steps.UploadPhotosDeps{
				Log:    p.log,
				Scans:  p.scans,
				Photos: p.photos,
			}, steps.UploadPhotosInput{ScanID: scanID})
			if err != nil {
				p.failScan(dbc, scanID, err.Error())
				jc.Fail("upload_photos", err)
				return nil
			}

		case scandom.StatusUploaded:
			jc.Progress("quality_check", 40, "Reviewing photo quality")
			_, err := steps.QualityCheck(jc.Ctx, steps.QualityCheckDeps{
				Log:       p.log,
				Scans:     p.scans,
				Estimator: p.estimator,
			}, steps.QualityCheckInput{ScanID: scanID})
			if err != nil {
				p.failScan(dbc, scanID, err.Error())
				jc.Fail("quality_check", err)
				return nil
			}

		case scandom.StatusQCDone:
			jc.Progress("estimate", 60, "Estimating body composition")
			_, err := steps.Estimate(jc.Ctx, steps.EstimateDeps{
				Log:       p.log,
				Scans:     p.scans,
				Profiles:  p.profiles,
				Estimator: p.estimator,
			}, steps.EstimateInput{ScanID: scanID})
			if err != nil {
				// Estimation is never auto-retried; the model's error text is
				// the user-visible failure reason.
				p.failScan(dbc, scanID, err.Error())
				jc.Fail("estimate", err)
				return nil
			}

		case scandom.StatusEstimated:
			jc.Progress("finalize", 85, "Computing deltas and streak")
			_, err := steps.Finalize(jc.Ctx, steps.FinalizeDeps{
				Log:     p.log,
				Scans:   p.scans,
				Streaks: p.streaks,
				Insight: p.insight,
			}, steps.FinalizeInput{ScanID: scanID})
			if err != nil {
				if apperr.IsConsistency(err) && !retriedFinalize {
					retriedFinalize = true
					continue
				}
				// The scan keeps its estimate; only the derived fields are
				// missing. Do not mark it failed.
				jc.Fail("finalize", err)
				return nil
			}

		case scandom.StatusCompleted:
			jc.Succeed("done", map[string]any{
				"scan_id": scanID,
				"status":  scandom.StatusCompleted,
			})
			return nil

		case scandom.StatusFailed:
			jc.Fail("scan_failed", fmt.Errorf("%s", rec.FailReason))
			return nil

		default:
			jc.Fail("validate", fmt.Errorf("scan %s has unknown status %q", scanID, rec.Status))
			return nil
		}
	}
}

// failScan records the terminal failure on the scan itself; the record is the
// user-visible source of truth, independent of the job row.
func (p *Pipeline) failScan(dbc dbctx.Context, scanID, reason string) {
	if _, err := p.scans.UpdateFieldsUnlessStatus(dbc, scanID, []string{scandom.StatusCompleted}, map[string]interface{}{
		"status":      scandom.StatusFailed,
		"fail_reason": reason,
	}); err != nil {
		p.log.Error("Failed to record scan failure", "scan_id", scanID, "error", err)
	}
}
