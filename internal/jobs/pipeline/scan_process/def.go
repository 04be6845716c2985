package scan_process

import (
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

// Pipeline drives one submitted scan from pending_upload to completed. Each
// stage writes its result plus the advanced status in one guarded update, so
// the pipeline resumes from the scan's own status after a crash.
type Pipeline struct {
	db        *gorm.DB
	log       *logger.Logger
	scans     repos.ScanRepo
	streaks   repos.StreakRepo
	profiles  repos.UserProfileRepo
	photos    services.PhotoStore
	estimator services.BodyCompositionEstimator
	insight   services.InsightService
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	scans repos.ScanRepo,
	streaks repos.StreakRepo,
	profiles repos.UserProfileRepo,
	photos services.PhotoStore,
	estimator services.BodyCompositionEstimator,
	insight services.InsightService,
) *Pipeline {
	return &Pipeline{
		db:        db,
		log:       baseLog.With("job", "scan_process"),
		scans:     scans,
		streaks:   streaks,
		profiles:  profiles,
		photos:    photos,
		estimator: estimator,
		insight:   insight,
	}
}

func (p *Pipeline) Type() string { return "scan_process" }
