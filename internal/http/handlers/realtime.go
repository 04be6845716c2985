package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/middleware"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewRealtimeHandler(baseLog *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: baseLog.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// GET /api/events  (SSE stream of scan pipeline progress for the caller)
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID := middleware.RequestUserID(c)

	client := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	h.log.Info("SSE stream open", "user_id", userID, "client_id", client.ID)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-client.Done():
			return false
		case msg, ok := <-client.Outbound:
			if !ok {
				return false
			}
			data, err := json.Marshal(msg.Data)
			if err != nil {
				h.log.Warn("Bad SSE payload", "event", msg.Event, "error", err)
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
			return true
		}
	})
}
