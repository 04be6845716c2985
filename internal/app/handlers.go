package app

import (
	httpx "github.com/DandaAkhilReddy/dailyscan-backend/internal/http"
	httpH "github.com/DandaAkhilReddy/dailyscan-backend/internal/http/handlers"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/sse"
)

func wireRouterConfig(log *logger.Logger, r Repos, s Services, hub *sse.Hub) httpx.RouterConfig {
	return httpx.RouterConfig{
		Log:             log,
		ScanHandler:     httpH.NewScanHandler(log, s.Scans, s.Trend),
		JobHandler:      httpH.NewJobHandler(s.Jobs),
		ProfileHandler:  httpH.NewProfileHandler(r.Profiles),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub),
		HealthHandler:   httpH.NewHealthHandler(),
	}
}
