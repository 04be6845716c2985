package sse

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return NewHub(log)
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	h := newHub(t)
	userID := uuid.New()
	c := h.Subscribe(userID)
	defer h.Unsubscribe(c)

	h.Broadcast(Message{Channel: userID.String(), Event: EventScanJobProgress, Data: "halfway"})

	select {
	case msg := <-c.Outbound:
		assert.Equal(t, EventScanJobProgress, msg.Event)
		assert.Equal(t, "halfway", msg.Data)
	default:
		t.Fatal("expected a buffered message")
	}
}

func TestHubIsolatesUsers(t *testing.T) {
	h := newHub(t)
	alice := h.Subscribe(uuid.New())
	bob := h.Subscribe(uuid.New())
	defer h.Unsubscribe(alice)
	defer h.Unsubscribe(bob)

	h.Broadcast(Message{Channel: alice.UserID.String(), Event: EventScanJobDone})

	assert.Len(t, alice.Outbound, 1)
	assert.Empty(t, bob.Outbound)
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	h := newHub(t)
	userID := uuid.New()
	c := h.Subscribe(userID)
	defer h.Unsubscribe(c)

	// Fill the buffer and then some; Broadcast must never block.
	for i := 0; i < cap(c.Outbound)+5; i++ {
		h.Broadcast(Message{Channel: userID.String(), Event: EventScanJobProgress, Data: i})
	}
	assert.Len(t, c.Outbound, cap(c.Outbound))
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := newHub(t)
	userID := uuid.New()
	c := h.Subscribe(userID)
	h.Unsubscribe(c)

	select {
	case <-c.Done():
	default:
		t.Fatal("expected client to be closed")
	}

	h.Broadcast(Message{Channel: userID.String(), Event: EventScanJobDone})
	assert.Empty(t, c.Outbound)
}
