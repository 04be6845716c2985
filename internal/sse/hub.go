package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type Event string

const (
	EventScanJobCreated  Event = "ScanJobCreated"
	EventScanJobProgress Event = "ScanJobProgress"
	EventScanJobFailed   Event = "ScanJobFailed"
	EventScanJobDone     Event = "ScanJobDone"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message
	done     chan struct{}
}

func (c *Client) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Client) Done() <-chan struct{} { return c.done }

// Hub fans scan-pipeline progress events out to connected clients. Channel is
// the owning user's id, so one user's events never reach another's stream.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(userID uuid.UUID) *Client {
	c := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
	ch := userID.String()
	h.mu.Lock()
	if h.subscriptions[ch] == nil {
		h.subscriptions[ch] = make(map[*Client]bool)
	}
	h.subscriptions[ch][c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	if c == nil {
		return
	}
	ch := c.UserID.String()
	h.mu.Lock()
	if subs, ok := h.subscriptions[ch]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscriptions, ch)
		}
	}
	h.mu.Unlock()
	c.Close()
}

func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	subs := h.subscriptions[msg.Channel]
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.Outbound <- msg:
		default:
			// Slow consumer; drop rather than block the pipeline.
			h.log.Warn("Dropping SSE message for slow client", "client_id", c.ID, "event", msg.Event)
		}
	}
}
