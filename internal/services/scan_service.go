package services

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/scan/streak"
)

// SubmitScanInput is the validated submission payload: exactly one blob per
// required angle plus today's weight.
type SubmitScanInput struct {
	UserID   uuid.UUID
	Date     string
	WeightLb float64
	Notes    string
	Photos   map[string]io.Reader
}

type ScanService interface {
	// SubmitScan validates the submission, durably creates the scan record,
	// stages the photo blobs, and enqueues the processing job. Validation
	// failures leave no record behind.
	SubmitScan(dbc dbctx.Context, in SubmitScanInput) (*types.Scan, *types.JobRun, error)
	GetScan(dbc dbctx.Context, userID uuid.UUID, id string) (*types.Scan, error)
	ListScans(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error)
	// HasScannedToday reports whether a completed scan exists for the date.
	// Submission is not blocked on it; callers surface it as a warning.
	HasScannedToday(dbc dbctx.Context, userID uuid.UUID, date string) (bool, error)
	// DeleteScan removes the scan record and every photo object behind it,
	// then rebuilds the streak cache from the remaining completed dates.
	DeleteScan(dbc dbctx.Context, userID uuid.UUID, id string) error
	// GetStreak returns the cached streak, rebuilding the cache when it is
	// missing or stale for the given date.
	GetStreak(dbc dbctx.Context, userID uuid.UUID, today string) (*types.ScanStreak, error)
}

type scanService struct {
	db      *gorm.DB
	log     *logger.Logger
	scans   repos.ScanRepo
	streaks repos.StreakRepo
	photos  PhotoStore
	jobs    JobService
}

func NewScanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	scans repos.ScanRepo,
	streaks repos.StreakRepo,
	photos PhotoStore,
	jobs JobService,
) ScanService {
	return &scanService{
		db:      db,
		log:     baseLog.With("service", "ScanService"),
		scans:   scans,
		streaks: streaks,
		photos:  photos,
		jobs:    jobs,
	}
}

func (s *scanService) SubmitScan(dbc dbctx.Context, in SubmitScanInput) (*types.Scan, *types.JobRun, error) {
	if in.UserID == uuid.Nil {
		return nil, nil, apperr.Validationf("missing user id")
	}
	if in.WeightLb <= 0 {
		return nil, nil, apperr.Validationf("weight_lb must be positive, got %v", in.WeightLb)
	}
	if _, err := time.Parse(scan.DateLayout, in.Date); err != nil {
		return nil, nil, apperr.Validationf("date must be YYYY-MM-DD, got %q", in.Date)
	}
	for _, angle := range scan.Angles {
		if in.Photos[angle] == nil {
			return nil, nil, apperr.Validationf("missing %s photo", angle)
		}
	}
	if len(in.Photos) != len(scan.Angles) {
		return nil, nil, apperr.Validationf("expected exactly %d photos (front, back, left, right), got %d", len(scan.Angles), len(in.Photos))
	}

	now := time.Now()
	rec := &types.Scan{
		ID:        scan.NewID(in.UserID, in.Date, now),
		UserID:    in.UserID,
		Date:      in.Date,
		Status:    scan.StatusPendingUpload,
		WeightLb:  in.WeightLb,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.scans.Create(dbc, rec); err != nil {
		return nil, nil, fmt.Errorf("create scan: %w", err)
	}

	// The record exists before any blob I/O, so a crash here leaves a
	// traceable pending_upload row rather than orphaned objects.
	for _, angle := range scan.Angles {
		if err := s.photos.StagePhoto(dbc.Ctx, in.UserID, rec.ID, angle, in.Photos[angle]); err != nil {
			reason := fmt.Sprintf("photo staging failed for %s angle: %v", angle, err)
			_, _ = s.scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scan.StatusCompleted}, map[string]interface{}{
				"status":      scan.StatusFailed,
				"fail_reason": reason,
			})
			return nil, nil, apperr.Transient("stage photos", err)
		}
	}

	job, err := s.jobs.Enqueue(dbc, in.UserID, JobTypeScanProcess, EntityTypeScan, rec.ID, map[string]any{
		"scan_id": rec.ID,
		"user_id": in.UserID.String(),
	})
	if err != nil {
		reason := fmt.Sprintf("failed to enqueue processing job: %v", err)
		_, _ = s.scans.UpdateFieldsUnlessStatus(dbc, rec.ID, []string{scan.StatusCompleted}, map[string]interface{}{
			"status":      scan.StatusFailed,
			"fail_reason": reason,
		})
		return nil, nil, err
	}
	s.log.Info("Scan submitted", "scan_id", rec.ID, "user_id", in.UserID, "date", in.Date, "job_id", job.ID)
	return rec, job, nil
}

func (s *scanService) GetScan(dbc dbctx.Context, userID uuid.UUID, id string) (*types.Scan, error) {
	rec, err := s.scans.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, nil
	}
	return rec, nil
}

func (s *scanService) ListScans(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error) {
	if userID == uuid.Nil {
		return nil, apperr.Validationf("missing user id")
	}
	return s.scans.QueryByUser(dbc, userID, fromDate, toDate)
}

func (s *scanService) HasScannedToday(dbc dbctx.Context, userID uuid.UUID, date string) (bool, error) {
	if _, err := time.Parse(scan.DateLayout, date); err != nil {
		return false, apperr.Validationf("date must be YYYY-MM-DD, got %q", date)
	}
	return s.scans.HasCompletedOnDate(dbc, userID, date)
}

func (s *scanService) DeleteScan(dbc dbctx.Context, userID uuid.UUID, id string) error {
	rec, err := s.scans.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if rec == nil || rec.UserID != userID {
		return apperr.Validationf("scan %s not found", id)
	}
	if err := s.photos.DeleteScanPhotos(dbc.Ctx, userID, id); err != nil {
		return fmt.Errorf("delete scan photos: %w", err)
	}
	if err := s.scans.HardDelete(dbc, id); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	// A deleted completed scan may shorten the streak; rebuild the cache.
	if rec.Status == scan.StatusCompleted {
		if _, err := s.rebuildStreak(dbc, userID, time.Now().UTC().Format(scan.DateLayout)); err != nil {
			s.log.Warn("Streak rebuild after delete failed", "user_id", userID, "error", err)
		}
	}
	s.log.Info("Scan deleted", "scan_id", id, "user_id", userID)
	return nil
}

func (s *scanService) GetStreak(dbc dbctx.Context, userID uuid.UUID, today string) (*types.ScanStreak, error) {
	if _, err := time.Parse(scan.DateLayout, today); err != nil {
		return nil, apperr.Validationf("date must be YYYY-MM-DD, got %q", today)
	}
	cached, err := s.streaks.GetByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.EvaluatedDate == today {
		return cached, nil
	}
	return s.rebuildStreak(dbc, userID, today)
}

// rebuildStreak recomputes the streak from completed-scan dates and upserts
// the cache. The cache is derived state and always reconstructable.
func (s *scanService) rebuildStreak(dbc dbctx.Context, userID uuid.UUID, today string) (*types.ScanStreak, error) {
	dates, err := s.scans.CompletedDates(dbc, userID)
	if err != nil {
		return nil, err
	}
	res := streak.Compute(dates, today)
	st := &types.ScanStreak{
		UserID:        userID,
		CurrentStreak: res.Current,
		BestStreak:    res.Best,
		EvaluatedDate: today,
	}
	if err := s.streaks.Upsert(dbc, st); err != nil {
		return nil, err
	}
	return st, nil
}
