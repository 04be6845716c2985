package repos

import (
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/jobs"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos/user"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type ScanRepo = scan.ScanRepo
type StreakRepo = scan.StreakRepo
type UserProfileRepo = user.UserProfileRepo
type JobRunRepo = jobs.JobRunRepo

func NewScanRepo(db *gorm.DB, log *logger.Logger) ScanRepo { return scan.NewScanRepo(db, log) }
func NewStreakRepo(db *gorm.DB, log *logger.Logger) StreakRepo {
	return scan.NewStreakRepo(db, log)
}
func NewUserProfileRepo(db *gorm.DB, log *logger.Logger) UserProfileRepo {
	return user.NewUserProfileRepo(db, log)
}
func NewJobRunRepo(db *gorm.DB, log *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, log)
}
