package app

import (
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/jobs/pipeline/scan_process"
	jobrt "github.com/DandaAkhilReddy/dailyscan-backend/internal/jobs/runtime"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/scan/trend"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/sse"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/temporalx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Photos    services.PhotoStore
	Estimator services.BodyCompositionEstimator
	Insight   services.InsightService
	Notifier  services.JobNotifier
	Jobs      services.JobService
	Scans     services.ScanService
	Trend     *trend.Query

	Registry *jobrt.Registry
	Worker   *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, clients Clients, r Repos, hub *sse.Hub) (Services, error) {
	var s Services

	s.Photos = services.NewGCSPhotoStore(log, clients.Bucket)
	if clients.AI != nil {
		s.Estimator = services.NewAIEstimator(log, clients.AI, clients.Lighting)
	} else {
		s.Estimator = services.NewStaticEstimator(log)
	}
	s.Insight = services.NewInsightService(log, clients.AI)
	s.Notifier = services.NewJobNotifier(log, hub, clients.Bus)

	tqCfg := temporalx.LoadConfig()
	s.Jobs = services.NewJobService(db, log, r.Jobs, s.Notifier, clients.Temporal, tqCfg.TaskQueue)
	s.Scans = services.NewScanService(db, log, r.Scans, r.Streaks, s.Photos, s.Jobs)
	s.Trend = trend.NewQuery(log, r.Scans)

	s.Registry = jobrt.NewRegistry()
	if err := s.Registry.Register(scan_process.New(
		db, log,
		r.Scans, r.Streaks, r.Profiles,
		s.Photos, s.Estimator, s.Insight,
	)); err != nil {
		return s, err
	}

	if clients.Temporal != nil {
		worker, err := temporalworker.NewRunner(log, clients.Temporal, db, r.Jobs, s.Registry, s.Notifier)
		if err != nil {
			return s, err
		}
		s.Worker = worker
	} else {
		log.Warn("Temporal disabled; scan jobs will not be processed")
	}

	return s, nil
}
