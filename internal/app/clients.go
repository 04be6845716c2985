package app

import (
	"os"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/gcp"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/openai"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/redis"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/envutil"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/temporalx"
)

type Clients struct {
	Bucket   gcp.BucketService
	AI       openai.Client        // nil when OPENAI_API_KEY is unset
	Lighting gcp.LightingAnalyzer // nil when disabled
	Temporal temporalsdkclient.Client
	Bus      redis.SSEBus // nil when REDIS_ADDR is unset
}

func wireClients(log *logger.Logger) (Clients, error) {
	var c Clients
	var err error

	c.Bucket, err = gcp.NewBucketService(log)
	if err != nil {
		return c, err
	}

	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		c.AI, err = openai.NewClient(log)
		if err != nil {
			return c, err
		}
	} else {
		log.Warn("OPENAI_API_KEY not set; using static estimator")
	}

	if c.AI != nil && envutil.Bool("SCAN_LIGHTING_ANALYSIS", false) {
		c.Lighting, err = gcp.NewLightingAnalyzer(log)
		if err != nil {
			log.Warn("Lighting analyzer unavailable", "error", err)
			c.Lighting = nil
		}
	}

	c.Temporal, err = temporalx.NewClient(log)
	if err != nil {
		return c, err
	}

	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		c.Bus, err = redis.NewSSEBus(log)
		if err != nil {
			log.Warn("Redis SSE bus unavailable; events stay instance-local", "error", err)
			c.Bus = nil
		}
	}

	return c, nil
}
