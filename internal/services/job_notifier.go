package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/redis"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/sse"
)

// JobNotifier pushes scan-pipeline lifecycle events to the user's SSE stream.
// When a redis bus is configured, events are also published cross-instance.
type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus redis.SSEBus // optional
}

func NewJobNotifier(baseLog *logger.Logger, hub *sse.Hub, bus redis.SSEBus) JobNotifier {
	return &jobNotifier{
		log: baseLog.With("service", "JobNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *jobNotifier) emit(msg sse.Message) {
	n.hub.Broadcast(msg)
	if n.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.bus.Publish(ctx, msg); err != nil {
		n.log.Warn("SSE bus publish failed", "event", msg.Event, "error", err)
	}
}

func (n *jobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.emit(sse.Message{
		Channel: userID.String(),
		Event:   sse.EventScanJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	n.emit(sse.Message{
		Channel: userID.String(),
		Event:   sse.EventScanJobProgress,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"scan_id":  job.EntityID,
			"stage":    stage,
			"progress": progress,
			"message":  message,
		},
	})
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	n.emit(sse.Message{
		Channel: userID.String(),
		Event:   sse.EventScanJobFailed,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"scan_id":  job.EntityID,
			"stage":    stage,
			"error":    errorMessage,
		},
	})
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	n.emit(sse.Message{
		Channel: userID.String(),
		Event:   sse.EventScanJobDone,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"scan_id":  job.EntityID,
		},
	})
}
