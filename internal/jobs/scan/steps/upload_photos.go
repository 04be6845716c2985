package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/httpx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

// One initial attempt plus three retries per angle.
const uploadMaxAttempts = 4

type UploadPhotosDeps struct {
	Log    *logger.Logger
	Scans  repos.ScanRepo
	Photos services.PhotoStore
}

type UploadPhotosInput struct {
	ScanID string
}

type UploadPhotosOutput struct {
	AngleURLs map[string]string
}

// UploadPhotos promotes the four staged angle blobs to their durable keys,
// concurrently, and records the URL map on the scan. Each angle retries
// independently with backoff; any angle exhausting its attempts fails the
// step with the angle named in the error.
func UploadPhotos(ctx context.Context, deps UploadPhotosDeps, in UploadPhotosInput) (*UploadPhotosOutput, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := deps.Scans.GetByID(dbc, in.ScanID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.Consistencyf("scan %s not found", in.ScanID)
	}
	// Resume: a crash after the status write lands here with the work done.
	if rec.Status != scandom.StatusPendingUpload && rec.HasAllAngles() {
		return &UploadPhotosOutput{AngleURLs: rec.AngleURLMap()}, nil
	}

	urls := make([]string, len(scandom.Angles))
	g, gctx := errgroup.WithContext(ctx)
	for i, angle := range scandom.Angles {
		i, angle := i, angle
		g.Go(func() error {
			var lastErr error
			for attempt := 1; attempt <= uploadMaxAttempts; attempt++ {
				url, perr := deps.Photos.PromotePhoto(gctx, rec.UserID, rec.ID, angle)
				if perr == nil {
					urls[i] = url
					return nil
				}
				lastErr = perr
				deps.Log.Warn("Photo promote failed", "scan_id", rec.ID, "angle", angle, "attempt", attempt, "error", perr)
				if attempt == uploadMaxAttempts {
					break
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(httpx.Backoff(time.Second, 30*time.Second, attempt)):
				}
			}
			return apperr.Transient("upload", fmt.Errorf("photo upload failed for %s angle after %d attempts: %w", angle, uploadMaxAttempts, lastErr))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	angleURLs := make(map[string]string, len(scandom.Angles))
	for i, angle := range scandom.Angles {
		angleURLs[angle] = urls[i]
	}
	raw, err := json.Marshal(angleURLs)
	if err != nil {
		return nil, err
	}
	ok, err := deps.Scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scandom.StatusCompleted, scandom.StatusFailed}, map[string]interface{}{
		"angle_urls": raw,
		"status":     scandom.StatusUploaded,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Consistencyf("scan %s reached a terminal status during upload", rec.ID)
	}
	return &UploadPhotosOutput{AngleURLs: angleURLs}, nil
}
