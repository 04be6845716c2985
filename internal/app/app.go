package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/db"
	httpx "github.com/DandaAkhilReddy/dailyscan-backend/internal/http"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/envutil"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Hub      *sse.Hub
	Clients  Clients
	Repos    Repos
	Services Services

	cancel context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.Get("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := sse.NewHub(log)

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, clientset, reposet, hub)
	if err != nil {
		log.Sync()
		return nil, err
	}
	router := httpx.NewRouter(wireRouterConfig(log, reposet, serviceset, hub))

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Hub:      hub,
		Clients:  clientset,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// Start launches background machinery: the Temporal worker and the
// cross-instance SSE forwarder.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Worker != nil {
		if err := a.Services.Worker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			a.Log.Warn("SSE bus forwarder failed to start", "error", err)
		}
	}
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.Bus != nil {
		_ = a.Clients.Bus.Close()
	}
	if a.Clients.Lighting != nil {
		_ = a.Clients.Lighting.Close()
	}
	if a.Clients.Temporal != nil {
		a.Clients.Temporal.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
