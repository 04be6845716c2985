package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/gcp"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

// PhotoStore owns scan-photo keys. Blobs land under a staging prefix at
// submit time; the upload stage promotes them to their final keys with a
// server-side copy. Both operations are keyed by (user, scan, angle), so
// re-running either is overwrite-safe.
type PhotoStore interface {
	StagePhoto(ctx context.Context, userID uuid.UUID, scanID, angle string, r io.Reader) error
	// PromotePhoto copies the staged blob to its final key and returns the
	// durable public URL. Idempotent: promoting an already-promoted angle
	// re-copies to the same key.
	PromotePhoto(ctx context.Context, userID uuid.UUID, scanID, angle string) (string, error)
	PhotoURL(userID uuid.UUID, scanID, angle string) string
	// DeleteScanPhotos removes every staged and final object for the scan.
	DeleteScanPhotos(ctx context.Context, userID uuid.UUID, scanID string) error
}

type gcsPhotoStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewGCSPhotoStore(baseLog *logger.Logger, bucket gcp.BucketService) PhotoStore {
	return &gcsPhotoStore{
		log:    baseLog.With("service", "PhotoStore"),
		bucket: bucket,
	}
}

func stagingKey(userID uuid.UUID, scanID, angle string) string {
	return fmt.Sprintf("staging/%s/%s/%s.jpg", userID, scanID, angle)
}

func finalKey(userID uuid.UUID, scanID, angle string) string {
	return fmt.Sprintf("scans/%s/%s/%s.jpg", userID, scanID, angle)
}

func (ps *gcsPhotoStore) StagePhoto(ctx context.Context, userID uuid.UUID, scanID, angle string, r io.Reader) error {
	if err := ps.bucket.UploadObject(ctx, stagingKey(userID, scanID, angle), r); err != nil {
		return fmt.Errorf("stage photo %s: %w", angle, err)
	}
	return nil
}

func (ps *gcsPhotoStore) PromotePhoto(ctx context.Context, userID uuid.UUID, scanID, angle string) (string, error) {
	src := stagingKey(userID, scanID, angle)
	dst := finalKey(userID, scanID, angle)
	if err := ps.bucket.CopyObject(ctx, src, dst); err != nil {
		return "", fmt.Errorf("promote photo %s: %w", angle, err)
	}
	return ps.bucket.PublicURL(dst), nil
}

func (ps *gcsPhotoStore) PhotoURL(userID uuid.UUID, scanID, angle string) string {
	return ps.bucket.PublicURL(finalKey(userID, scanID, angle))
}

func (ps *gcsPhotoStore) DeleteScanPhotos(ctx context.Context, userID uuid.UUID, scanID string) error {
	stagingPrefix := fmt.Sprintf("staging/%s/%s/", userID, scanID)
	finalPrefix := fmt.Sprintf("scans/%s/%s/", userID, scanID)
	if err := ps.bucket.DeletePrefix(ctx, stagingPrefix); err != nil {
		return fmt.Errorf("delete staged photos: %w", err)
	}
	if err := ps.bucket.DeletePrefix(ctx, finalPrefix); err != nil {
		return fmt.Errorf("delete scan photos: %w", err)
	}
	return nil
}
