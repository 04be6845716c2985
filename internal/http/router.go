package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/DandaAkhilReddy/dailyscan-backend/internal/http/handlers"
	httpMW "github.com/DandaAkhilReddy/dailyscan-backend/internal/http/middleware"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ScanHandler     *httpH.ScanHandler
	JobHandler      *httpH.JobHandler
	ProfileHandler  *httpH.ProfileHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireUser())
	{
		if cfg.ScanHandler != nil {
			api.POST("/scans", cfg.ScanHandler.Submit)
			api.GET("/scans", cfg.ScanHandler.List)
			api.GET("/scans/today", cfg.ScanHandler.Today)
			api.GET("/scans/:id", cfg.ScanHandler.Get)
			api.DELETE("/scans/:id", cfg.ScanHandler.Delete)
			api.GET("/streak", cfg.ScanHandler.Streak)
			api.GET("/trend", cfg.ScanHandler.Trend)
		}
		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
			api.GET("/scans/:id/job", cfg.JobHandler.GetScanJob)
		}
		if cfg.ProfileHandler != nil {
			api.GET("/profile", cfg.ProfileHandler.Get)
			api.PUT("/profile", cfg.ProfileHandler.Put)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/events", cfg.RealtimeHandler.Stream)
		}
	}

	return r
}
