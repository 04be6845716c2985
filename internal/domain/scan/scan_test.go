package scan

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNewID(t *testing.T) {
	userID := uuid.New()
	at := time.Date(2026, 3, 10, 8, 30, 0, 123456789, time.UTC)

	id := NewID(userID, "2026-03-10", at)
	assert.Equal(t, fmt.Sprintf("%s_2026-03-10_%019d", userID, at.UnixNano()), id)

	// Later creation times within the same user/day sort after earlier ones.
	later := NewID(userID, "2026-03-10", at.Add(time.Second))
	assert.Greater(t, later, id)
}

func TestAngleURLMap(t *testing.T) {
	t.Run("nil scan", func(t *testing.T) {
		var s *Scan
		m := s.AngleURLMap()
		require.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("empty column", func(t *testing.T) {
		s := &Scan{}
		m := s.AngleURLMap()
		require.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("invalid json", func(t *testing.T) {
		s := &Scan{AngleURLs: datatypes.JSON(`not json`)}
		m := s.AngleURLMap()
		require.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("round trip", func(t *testing.T) {
		urls := map[string]string{AngleFront: "https://cdn/front.jpg", AngleBack: "https://cdn/back.jpg"}
		raw, err := json.Marshal(urls)
		require.NoError(t, err)
		s := &Scan{AngleURLs: raw}
		assert.Equal(t, urls, s.AngleURLMap())
	})
}

func TestHasAllAngles(t *testing.T) {
	full := map[string]string{}
	for _, a := range Angles {
		full[a] = "https://cdn/" + a + ".jpg"
	}
	raw, err := json.Marshal(full)
	require.NoError(t, err)
	assert.True(t, (&Scan{AngleURLs: raw}).HasAllAngles())

	delete(full, AngleLeft)
	raw, err = json.Marshal(full)
	require.NoError(t, err)
	assert.False(t, (&Scan{AngleURLs: raw}).HasAllAngles())

	assert.False(t, (&Scan{}).HasAllAngles())
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(StatusCompleted))
	assert.True(t, Terminal(StatusFailed))
	for _, st := range []string{StatusPendingUpload, StatusUploaded, StatusQCDone, StatusEstimated, ""} {
		assert.False(t, Terminal(st), st)
	}
}
