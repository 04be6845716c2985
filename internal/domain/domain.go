package domain

import (
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/jobs"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/user"
)

type (
	Scan        = scan.Scan
	ScanStreak  = scan.Streak
	QCResult    = scan.QCResult
	ScanDelta   = scan.Delta
	ScanInsight = scan.Insight
	InsightFlag = scan.InsightFlag
	UserProfile = user.Profile
	JobRun      = jobs.JobRun
)

const (
	ScanStatusPendingUpload = scan.StatusPendingUpload
	ScanStatusUploaded      = scan.StatusUploaded
	ScanStatusQCDone        = scan.StatusQCDone
	ScanStatusEstimated     = scan.StatusEstimated
	ScanStatusCompleted     = scan.StatusCompleted
	ScanStatusFailed        = scan.StatusFailed
)
