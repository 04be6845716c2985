package app

import (
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type Repos struct {
	Scans    repos.ScanRepo
	Streaks  repos.StreakRepo
	Profiles repos.UserProfileRepo
	Jobs     repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Scans:    repos.NewScanRepo(db, log),
		Streaks:  repos.NewStreakRepo(db, log),
		Profiles: repos.NewUserProfileRepo(db, log),
		Jobs:     repos.NewJobRunRepo(db, log),
	}
}
